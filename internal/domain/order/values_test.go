package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderID(t *testing.T) {
	raw := uuid.New()

	id, err := NewOrderID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.Value())
	assert.Equal(t, raw.String(), id.String())
}

func TestIdentifierConstructorsRejectNil(t *testing.T) {
	var derr *DomainError

	_, err := NewOrderID(uuid.Nil)
	require.ErrorAs(t, err, &derr)

	_, err = NewCustomerID(uuid.Nil)
	require.ErrorAs(t, err, &derr)

	_, err = NewProductID(uuid.Nil)
	require.ErrorAs(t, err, &derr)

	_, err = NewOrderItemID(uuid.Nil)
	require.ErrorAs(t, err, &derr)
}

func TestNewOrderName(t *testing.T) {
	name, err := NewOrderName("ORD_1")
	require.NoError(t, err)
	assert.Equal(t, "ORD_1", name.Value())

	var derr *DomainError
	_, err = NewOrderName("   ")
	require.ErrorAs(t, err, &derr)
}

func TestNewAddress(t *testing.T) {
	addr, err := NewAddress("Mehmet", "Ozkaya", "mehmet@example.com", "Bahcelievler No:4", "Turkey", "Istanbul", "38050")
	require.NoError(t, err)
	assert.Equal(t, "mehmet@example.com", addr.EmailAddress)

	tests := []struct {
		name        string
		email       string
		addressLine string
	}{
		{name: "blank email", email: " ", addressLine: "Bahcelievler No:4"},
		{name: "blank address line", email: "mehmet@example.com", addressLine: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAddress("Mehmet", "Ozkaya", tt.email, tt.addressLine, "Turkey", "Istanbul", "38050")

			var derr *DomainError
			require.ErrorAs(t, err, &derr)
		})
	}
}

func TestNewPayment(t *testing.T) {
	p, err := NewPayment("Mehmet Ozkaya", "5555555555554444", "12/28", "355", 1)
	require.NoError(t, err)
	assert.Equal(t, "355", p.CVV)

	tests := []struct {
		name string
		cvv  string
	}{
		{name: "blank cvv", cvv: "   "},
		{name: "short cvv", cvv: "35"},
		{name: "long cvv", cvv: "3550"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayment("Mehmet Ozkaya", "5555555555554444", "12/28", tt.cvv, 1)

			var derr *DomainError
			require.ErrorAs(t, err, &derr)
		})
	}

	var derr *DomainError
	_, err = NewPayment("", "5555555555554444", "12/28", "355", 1)
	require.ErrorAs(t, err, &derr)

	_, err = NewPayment("Mehmet Ozkaya", " ", "12/28", "355", 1)
	require.ErrorAs(t, err, &derr)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusCompleted, StatusCancelled} {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("Shipped")
	assert.Error(t, err)
}
