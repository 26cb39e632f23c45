package nodes

// Names of the functions and operators the library builds itself. These are
// the keys looked up in a dialect; a dialect maps each one to the SQL that
// a backend understands.
const (
	FuncEqualTo              = "="
	FuncNotEqualTo           = "<>"
	FuncLessThan             = "<"
	FuncGreaterThan          = ">"
	FuncLessThanOrEqualTo    = "<="
	FuncGreaterThanOrEqualTo = ">="

	FuncAnd = "AND"
	FuncOr  = "OR"
	FuncNot = "NOT"

	FuncAdd = "+"
	FuncSub = "-"
	FuncMul = "*"
	FuncDiv = "/"

	FuncIsNull = "IS NULL"
	FuncLike   = "LIKE"
	FuncUpper  = "UPPER"

	FuncSTEquals             = "ST_Equals"
	FuncSTDisjoint           = "ST_Disjoint"
	FuncSTTouches            = "ST_Touches"
	FuncSTWithin             = "ST_Within"
	FuncSTOverlaps           = "ST_Overlaps"
	FuncSTCrosses            = "ST_Crosses"
	FuncSTIntersects         = "ST_Intersects"
	FuncSTContains           = "ST_Contains"
	FuncSTDWithin            = "ST_DWithin"
	FuncSTBeyond             = "ST_Beyond"
	FuncSTEnvelopeIntersects = "ST_EnvelopeIntersects"
)

// Function is a call to a named function with any number of arguments.
// The SQL text comes from the dialect entry for Name.
type Function struct {
	Name string
	Args []Expression
}

// NewFunction creates a Function. An empty name panics.
func NewFunction(name string, args ...Expression) *Function {
	if name == "" {
		precondition("function name must not be empty")
	}
	checkArgs(name, args)
	return &Function{Name: name, Args: args}
}

func (n *Function) Accept(v Visitor) (string, error) { return v.VisitFunction(n) }

func (n *Function) Clone() Expression {
	return &Function{Name: n.Name, Args: cloneExprs(n.Args)}
}

// AddArg appends an argument.
func (n *Function) AddArg(arg Expression) {
	checkArgs(n.Name, []Expression{arg})
	n.Args = append(n.Args, arg)
}

// BinaryFunction is a function or operator taking exactly two arguments:
// comparisons, AND/OR, arithmetic and the ST_* predicates.
type BinaryFunction struct {
	Name   string
	First  Expression
	Second Expression
}

// NewBinaryFunction creates a BinaryFunction. Nil operands panic.
func NewBinaryFunction(name string, first, second Expression) *BinaryFunction {
	if name == "" {
		precondition("function name must not be empty")
	}
	checkArgs(name, []Expression{first, second})
	return &BinaryFunction{Name: name, First: first, Second: second}
}

func (n *BinaryFunction) Accept(v Visitor) (string, error) { return v.VisitBinaryFunction(n) }

func (n *BinaryFunction) Clone() Expression {
	return &BinaryFunction{Name: n.Name, First: n.First.Clone(), Second: n.Second.Clone()}
}

// Args returns the two operands in order.
func (n *BinaryFunction) Args() []Expression { return []Expression{n.First, n.Second} }

// UnaryFunction is a function or operator taking exactly one argument,
// such as NOT or IS NULL.
type UnaryFunction struct {
	Name string
	Arg  Expression
}

// NewUnaryFunction creates a UnaryFunction. A nil operand panics.
func NewUnaryFunction(name string, arg Expression) *UnaryFunction {
	if name == "" {
		precondition("function name must not be empty")
	}
	checkArgs(name, []Expression{arg})
	return &UnaryFunction{Name: name, Arg: arg}
}

func (n *UnaryFunction) Accept(v Visitor) (string, error) { return v.VisitUnaryFunction(n) }

func (n *UnaryFunction) Clone() Expression {
	return &UnaryFunction{Name: n.Name, Arg: n.Arg.Clone()}
}

func checkArgs(name string, args []Expression) {
	for i, a := range args {
		if a == nil {
			precondition("argument %d of %s is nil", i, name)
		}
	}
}

func EqualTo(l, r Expression) *BinaryFunction     { return NewBinaryFunction(FuncEqualTo, l, r) }
func NotEqualTo(l, r Expression) *BinaryFunction  { return NewBinaryFunction(FuncNotEqualTo, l, r) }
func LessThan(l, r Expression) *BinaryFunction    { return NewBinaryFunction(FuncLessThan, l, r) }
func GreaterThan(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncGreaterThan, l, r) }
func LessThanOrEqualTo(l, r Expression) *BinaryFunction {
	return NewBinaryFunction(FuncLessThanOrEqualTo, l, r)
}
func GreaterThanOrEqualTo(l, r Expression) *BinaryFunction {
	return NewBinaryFunction(FuncGreaterThanOrEqualTo, l, r)
}

func And(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncAnd, l, r) }
func Or(l, r Expression) *BinaryFunction  { return NewBinaryFunction(FuncOr, l, r) }
func Not(e Expression) *UnaryFunction     { return NewUnaryFunction(FuncNot, e) }

func Add(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncAdd, l, r) }
func Sub(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncSub, l, r) }
func Mul(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncMul, l, r) }
func Div(l, r Expression) *BinaryFunction { return NewBinaryFunction(FuncDiv, l, r) }

func IsNull(e Expression) *UnaryFunction { return NewUnaryFunction(FuncIsNull, e) }

// STEnvelopeIntersects tests a geometry against a bounding box. Backend
// visitors turn it into an index-friendly box comparison when the second
// operand is a *LiteralEnvelope.
func STEnvelopeIntersects(geom, env Expression) *BinaryFunction {
	return NewBinaryFunction(FuncSTEnvelopeIntersects, geom, env)
}

// Conjoin folds exprs into a left-deep AND chain. It returns nil for no
// expressions and the expression itself for one.
func Conjoin(exprs ...Expression) Expression {
	var out Expression
	for _, e := range exprs {
		if out == nil {
			out = e
			continue
		}
		out = And(out, e)
	}
	return out
}
