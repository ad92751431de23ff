package testutil

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"delivery/internal/domain"
)

// GenerateJWTHS256 returns a signed identity token for the given subject.
func GenerateJWTHS256(t *testing.T, secret, subject, name, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"name":  name,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// Catalog returns a small product catalog used across tests.
func Catalog() []domain.Product {
	return []domain.Product{
		{ID: "p-5l", Name: "5L Water Bottle", Unit: "5L bottle", Category: "water", Price: 5, Stock: domain.LimitedStock(10), IsActive: true},
		{ID: "p-10l", Name: "10L Water Bottle", Unit: "10L bottle", Category: "water", Price: 10, Stock: domain.LimitedStock(5), IsActive: true},
		{ID: "p-disp", Name: "Water Dispenser", Unit: "dispenser", Category: "equipment", Price: 150, Stock: domain.LimitedStock(1), IsActive: true},
		{ID: "p-cups", Name: "Paper Cups", Unit: "pack", Category: "supplies", Price: 3, Stock: domain.UnlimitedStock(), IsActive: true},
	}
}

// PendingOrder returns a pending order requesting two 5L and one 10L bottles.
func PendingOrder(id string) *domain.Order {
	created := time.Now().Add(-time.Hour)
	return &domain.Order{
		ID:          id,
		OrderNumber: "ORD-" + id,
		Status:      domain.OrderStatusPending,
		Customer: domain.CustomerSnapshot{
			ID:      "cust-1",
			Name:    "Acme Offices",
			Phone:   "+971500000000",
			Address: "Tower 3, Business Bay",
		},
		Priority:          "normal",
		RequestedProducts: map[string]int{"5L Water Bottle": 2, "10L Water Bottle": 1},
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}
