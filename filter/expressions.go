package filter

// ArithmeticOperator names a binary arithmetic operator.
type ArithmeticOperator string

const (
	Add ArithmeticOperator = "Add"
	Sub ArithmeticOperator = "Sub"
	Mul ArithmeticOperator = "Mul"
	Div ArithmeticOperator = "Div"
)

// BinaryOperator is an arithmetic expression.
type BinaryOperator struct {
	Name          ArithmeticOperator
	First, Second Expression
}

func NewBinaryOperator(name ArithmeticOperator, first, second Expression) *BinaryOperator {
	return &BinaryOperator{Name: name, First: first, Second: second}
}

func (*BinaryOperator) filterNode() {}

func (e *BinaryOperator) Clone() Expression {
	return &BinaryOperator{Name: e.Name, First: cloneExpr(e.First), Second: cloneExpr(e.Second)}
}

// Function is a named function call.
type Function struct {
	Name string
	Args []Expression
}

func NewFunction(name string, args ...Expression) *Function {
	return &Function{Name: name, Args: args}
}

func (*Function) filterNode() {}

func (e *Function) Clone() Expression {
	args := make([]Expression, len(e.Args))
	for i, a := range e.Args {
		args[i] = cloneExpr(a)
	}
	return &Function{Name: e.Name, Args: args}
}

// Literal is a constant. Filter Encoding carries every literal as text.
type Literal struct {
	Value string
}

func NewLiteral(v string) *Literal { return &Literal{Value: v} }

func (*Literal) filterNode() {}

func (e *Literal) Clone() Expression { return &Literal{Value: e.Value} }

// PropertyName references a feature property.
type PropertyName struct {
	Name string
}

func Property(name string) *PropertyName { return &PropertyName{Name: name} }

func (*PropertyName) filterNode() {}

func (e *PropertyName) Clone() Expression { return &PropertyName{Name: e.Name} }
