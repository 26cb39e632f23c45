package visitors

import (
	"encoding/hex"
	"strconv"

	"github.com/bawdo/geosql/nodes"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// dateTimeLayout is the text form of date-time literals on every backend.
// Fractional seconds are printed only when present.
const dateTimeLayout = "2006-01-02 15:04:05.999999"

// wkbHex returns the little-endian WKB of g as lowercase hex.
func wkbHex(g *nodes.LiteralGeometry) (string, error) {
	data, err := wkb.Marshal(g.Geometry)
	if err != nil {
		return "", nodes.ErrPreconditionViolation.Wrap(err, "geometry cannot be encoded as WKB")
	}
	return hex.EncodeToString(data), nil
}

// envelopeWKT returns the envelope as a closed WKT polygon.
func envelopeWKT(env *nodes.LiteralEnvelope) string {
	return wkt.MarshalString(env.Bound.ToPolygon())
}

// cornerList renders "llx, lly, urx, ury".
func cornerList(env *nodes.LiteralEnvelope) string {
	llx, lly := env.LowerLeft()
	urx, ury := env.UpperRight()
	return formatFloat(llx) + ", " + formatFloat(lly) + ", " + formatFloat(urx) + ", " + formatFloat(ury)
}

// withSRID appends ", srid" to args unless srid is 0 (unknown).
func withSRID(args string, srid int) string {
	if srid == 0 {
		return args
	}
	return args + ", " + strconv.Itoa(srid)
}
