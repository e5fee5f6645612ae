package orders

import "fmt"

// Shape tags which of the three order representations feeds stock.
type Shape string

const (
	ShapeLegacy Shape = "legacy" // scalar product_key/size, resolved via catalog
	ShapeSimple Shape = "simple" // direct variant reference
	ShapeMulti  Shape = "multi"  // child order lines
)

// Classified binds an order to exactly one shape. Lines is populated for
// multi-item orders only.
type Classified struct {
	Order Order
	Shape Shape
	Lines []OrderLine
}

// Requirement is one stock demand of a classified order. VariantID is nil for
// demands that still need legacy resolution via (ProductKey, Size).
type Requirement struct {
	VariantID  *int64
	ProductKey string
	Size       string
	Quantity   int
	Label      string
}

// Classify assigns the order to one bucket. Lines win over the direct variant
// reference, which wins over the legacy scalars, so an order can never be
// counted by two buckets.
func Classify(o Order, lines []OrderLine) Classified {
	switch {
	case len(lines) > 0:
		return Classified{Order: o, Shape: ShapeMulti, Lines: lines}
	case o.VariantID != nil:
		return Classified{Order: o, Shape: ShapeSimple}
	default:
		return Classified{Order: o, Shape: ShapeLegacy}
	}
}

// Requirements flattens the shape into uniform stock demands. Legacy and
// simple orders consume exactly one unit of their single variant; multi-item
// lines consume their own quantities.
func (c Classified) Requirements() []Requirement {
	switch c.Shape {
	case ShapeMulti:
		reqs := make([]Requirement, 0, len(c.Lines))
		for i, ln := range c.Lines {
			reqs = append(reqs, Requirement{
				VariantID:  ln.VariantID,
				ProductKey: ln.ProductKey,
				Size:       ln.Size,
				Quantity:   ln.Quantity,
				Label:      fmt.Sprintf("item %d/%d: %s (%s) x%d", i+1, len(c.Lines), ln.ProductKey, ln.Size, ln.Quantity),
			})
		}
		return reqs
	case ShapeSimple:
		return []Requirement{{
			VariantID: c.Order.VariantID,
			Quantity:  1,
			Label:     "single item",
		}}
	default:
		return []Requirement{{
			ProductKey: c.Order.ProductKey,
			Size:       c.Order.Size,
			Quantity:   1,
			Label:      fmt.Sprintf("legacy %s (%s)", c.Order.ProductKey, c.Order.Size),
		}}
	}
}
