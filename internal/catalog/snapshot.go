package catalog

import (
	"context"
	"encoding/json"
	"os"
)

// Snapshot is the denormalized catalog artifact consumed by the storefront:
// availability and quantity per product/size, keyed by json_key.
type Snapshot struct {
	Products map[string]SnapshotProduct `json:"products"`
}

type SnapshotProduct struct {
	ID         int64                   `json:"id"`
	Title      string                  `json:"title"`
	PriceCents int                     `json:"price_cents"`
	CostCents  int                     `json:"cost_cents"`
	Sizes      map[string]SnapshotSize `json:"sizes"`
}

type SnapshotSize struct {
	ProductSizeID int64 `json:"product_size_id"`
	Available     bool  `json:"available"`
	Quantity      int   `json:"quantity"`
}

// BuildSnapshot assembles the artifact from products and their variants.
// A size is advertised available only if the flag is set and stock remains.
func BuildSnapshot(products []Product, variantsByProduct map[int64][]SizeVariant) Snapshot {
	snap := Snapshot{Products: make(map[string]SnapshotProduct, len(products))}
	for _, p := range products {
		sizes := make(map[string]SnapshotSize)
		for _, v := range variantsByProduct[p.ID] {
			sizes[v.Size] = SnapshotSize{
				ProductSizeID: v.ID,
				Available:     v.IsPurchasable(),
				Quantity:      v.Quantity,
			}
		}
		snap.Products[p.JSONKey] = SnapshotProduct{
			ID:         p.ID,
			Title:      p.Name,
			PriceCents: p.PriceCents,
			CostCents:  p.CostCents,
			Sizes:      sizes,
		}
	}
	return snap
}

// LoadSnapshot reads products and variants and builds the artifact.
func (r *Repo) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	products, err := r.ListActiveProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	byProduct := make(map[int64][]SizeVariant, len(products))
	for _, p := range products {
		vs, err := r.VariantsByProduct(ctx, p.ID)
		if err != nil {
			return Snapshot{}, err
		}
		byProduct[p.ID] = vs
	}
	return BuildSnapshot(products, byProduct), nil
}

func (s Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (s Snapshot) WriteFile(path string) error {
	b, err := s.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
