package product

import "testing"

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name            string
		stock, minStock int
		current, want   string
	}{
		{"plenty", 20, 5, StatusActive, StatusActive},
		{"at minimum", 5, 5, StatusActive, StatusLowStock},
		{"below minimum", 2, 5, StatusActive, StatusLowStock},
		{"empty", 0, 5, StatusLowStock, StatusOutOfStock},
		{"restocked", 10, 5, StatusOutOfStock, StatusActive},
		{"discontinued sticks", 100, 5, StatusDiscontinued, StatusDiscontinued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.stock, tt.minStock, tt.current); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRemoveAndRestock(t *testing.T) {
	p := Product{SKU: "WHEY", Name: "Whey", Category: "supplements", Price: 4999, Stock: 6, MinStock: 3}
	p.Normalize()
	if p.Status != StatusActive {
		t.Fatalf("Status = %s", p.Status)
	}
	if err := p.Remove(3); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if p.Status != StatusLowStock {
		t.Errorf("Status after Remove = %s, want low_stock", p.Status)
	}
	if err := p.Remove(4); err != ErrInsufficientStock {
		t.Errorf("Remove(4) error = %v", err)
	}
	if err := p.Remove(3); err != nil || p.Status != StatusOutOfStock {
		t.Errorf("Remove(3) error = %v status = %s", err, p.Status)
	}
	p.Restock(10)
	if p.Stock != 10 || p.Status != StatusActive {
		t.Errorf("after Restock stock=%d status=%s", p.Stock, p.Status)
	}
	_ = p.Discontinue()
	if err := p.Remove(1); err != ErrDiscontinued {
		t.Errorf("Remove on discontinued error = %v", err)
	}
}

func TestProductValidate(t *testing.T) {
	p := Product{SKU: "A", Name: "Towel", Category: "merch", Price: 100, Stock: -1, Status: StatusActive}
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative stock")
	}
}
