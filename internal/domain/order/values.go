package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DomainError indicates an invariant violation in a value object
// constructor. Invalid input never produces a value.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string {
	return e.Msg
}

func domainErrorf(format string, args ...any) *DomainError {
	return &DomainError{Msg: fmt.Sprintf(format, args...)}
}

// OrderID identifies an order aggregate. The zero value is invalid; use
// NewOrderID.
type OrderID struct {
	value uuid.UUID
}

// NewOrderID validates and wraps an order identifier.
func NewOrderID(value uuid.UUID) (OrderID, error) {
	if value == uuid.Nil {
		return OrderID{}, domainErrorf("order id cannot be empty")
	}
	return OrderID{value: value}, nil
}

// Value returns the wrapped identifier.
func (id OrderID) Value() uuid.UUID { return id.value }

func (id OrderID) String() string { return id.value.String() }

// CustomerID identifies the customer that placed an order.
type CustomerID struct {
	value uuid.UUID
}

// NewCustomerID validates and wraps a customer identifier.
func NewCustomerID(value uuid.UUID) (CustomerID, error) {
	if value == uuid.Nil {
		return CustomerID{}, domainErrorf("customer id cannot be empty")
	}
	return CustomerID{value: value}, nil
}

// Value returns the wrapped identifier.
func (id CustomerID) Value() uuid.UUID { return id.value }

func (id CustomerID) String() string { return id.value.String() }

// ProductID identifies a product referenced by an order item.
type ProductID struct {
	value uuid.UUID
}

// NewProductID validates and wraps a product identifier.
func NewProductID(value uuid.UUID) (ProductID, error) {
	if value == uuid.Nil {
		return ProductID{}, domainErrorf("product id cannot be empty")
	}
	return ProductID{value: value}, nil
}

// Value returns the wrapped identifier.
func (id ProductID) Value() uuid.UUID { return id.value }

func (id ProductID) String() string { return id.value.String() }

// OrderItemID identifies a single item within an order.
type OrderItemID struct {
	value uuid.UUID
}

// NewOrderItemID validates and wraps an order item identifier.
func NewOrderItemID(value uuid.UUID) (OrderItemID, error) {
	if value == uuid.Nil {
		return OrderItemID{}, domainErrorf("order item id cannot be empty")
	}
	return OrderItemID{value: value}, nil
}

// Value returns the wrapped identifier.
func (id OrderItemID) Value() uuid.UUID { return id.value }

func (id OrderItemID) String() string { return id.value.String() }

// OrderName is the human-readable name of an order.
type OrderName struct {
	value string
}

// NewOrderName validates and wraps an order name. Blank names are rejected.
func NewOrderName(value string) (OrderName, error) {
	if strings.TrimSpace(value) == "" {
		return OrderName{}, domainErrorf("order name cannot be blank")
	}
	return OrderName{value: value}, nil
}

// Value returns the wrapped name.
func (n OrderName) Value() string { return n.value }

func (n OrderName) String() string { return n.value }

// Address is an immutable shipping or billing address. Email and address
// line are required; the remaining fields are carried as provided.
type Address struct {
	FirstName    string
	LastName     string
	EmailAddress string
	AddressLine  string
	Country      string
	State        string
	ZipCode      string
}

// NewAddress validates and constructs an Address.
func NewAddress(firstName, lastName, emailAddress, addressLine, country, state, zipCode string) (Address, error) {
	if strings.TrimSpace(emailAddress) == "" {
		return Address{}, domainErrorf("email address cannot be blank")
	}
	if strings.TrimSpace(addressLine) == "" {
		return Address{}, domainErrorf("address line cannot be blank")
	}
	return Address{
		FirstName:    firstName,
		LastName:     lastName,
		EmailAddress: emailAddress,
		AddressLine:  addressLine,
		Country:      country,
		State:        state,
		ZipCode:      zipCode,
	}, nil
}

// Payment is an immutable payment detail snapshot. The CVV must be exactly
// three characters.
type Payment struct {
	CardName      string
	CardNumber    string
	Expiration    string
	CVV           string
	PaymentMethod int
}

// NewPayment validates and constructs a Payment.
func NewPayment(cardName, cardNumber, expiration, cvv string, paymentMethod int) (Payment, error) {
	if strings.TrimSpace(cardName) == "" {
		return Payment{}, domainErrorf("card name cannot be blank")
	}
	if strings.TrimSpace(cardNumber) == "" {
		return Payment{}, domainErrorf("card number cannot be blank")
	}
	if strings.TrimSpace(cvv) == "" {
		return Payment{}, domainErrorf("cvv cannot be blank")
	}
	if len(cvv) != 3 {
		return Payment{}, domainErrorf("cvv must be 3 characters, got %d", len(cvv))
	}
	return Payment{
		CardName:      cardName,
		CardNumber:    cardNumber,
		Expiration:    expiration,
		CVV:           cvv,
		PaymentMethod: paymentMethod,
	}, nil
}
