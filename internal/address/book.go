package address

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/validators"
)

// DefaultCountry is the only country the storefront ships to.
const DefaultCountry = "India"

// API is the slice of the commerce client the address book needs.
type API interface {
	ListAddresses(ctx context.Context) ([]commerceapi.Address, error)
	CreateAddress(ctx context.Context, payload commerceapi.AddressPayload) (*commerceapi.Address, error)
	UpdateAddress(ctx context.Context, id int64, payload commerceapi.AddressPayload) (*commerceapi.Address, error)
	DeleteAddress(ctx context.Context, id int64) error
}

// Address is a saved shipping address.
type Address = commerceapi.Address

// Input is the form a shopper fills in to create or edit an address.
type Input struct {
	FullName     string            `json:"full_name" validate:"required,max=100"`
	Phone        string            `json:"phone" validate:"required,min=10,max=15"`
	AddressLine1 string            `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string            `json:"address_line_2" validate:"max=255"`
	City         string            `json:"city" validate:"required,max=100"`
	State        string            `json:"state" validate:"required,max=100"`
	Pincode      string            `json:"pincode" validate:"required,len=6,numeric"`
	AddressType  enums.AddressType `json:"address_type" validate:"required,oneof=home work other"`
	IsDefault    bool              `json:"is_default"`
}

// Book manages the shopper's saved addresses through the commerce API.
type Book struct {
	api     API
	country string
	logg    *logger.Logger
}

// NewBook builds an address book. An empty country falls back to DefaultCountry.
func NewBook(api API, country string, logg *logger.Logger) (*Book, error) {
	if api == nil {
		return nil, errors.New("address api required")
	}
	country = strings.TrimSpace(country)
	if country == "" {
		country = DefaultCountry
	}
	return &Book{api: api, country: country, logg: logg}, nil
}

// List returns the saved addresses.
func (b *Book) List(ctx context.Context) ([]Address, error) {
	return b.api.ListAddresses(ctx)
}

// Create validates in and saves it.
func (b *Book) Create(ctx context.Context, in Input) (*Address, error) {
	payload, err := b.payload(in)
	if err != nil {
		return nil, err
	}
	addr, err := b.api.CreateAddress(ctx, payload)
	if err != nil {
		b.logg.Debug(b.logg.WithField(ctx, "error", err.Error()), "address create rejected")
		return nil, err
	}
	return addr, nil
}

// Update validates in and saves it over address id.
func (b *Book) Update(ctx context.Context, id int64, in Input) (*Address, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	payload, err := b.payload(in)
	if err != nil {
		return nil, err
	}
	addr, err := b.api.UpdateAddress(ctx, id, payload)
	if err != nil {
		b.logg.Debug(b.logg.WithFields(ctx, map[string]any{"address_id": id, "error": err.Error()}), "address update rejected")
		return nil, err
	}
	return addr, nil
}

// Delete removes address id.
func (b *Book) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	return b.api.DeleteAddress(ctx, id)
}

func (b *Book) payload(in Input) (commerceapi.AddressPayload, error) {
	in = normalize(in)
	if err := validators.Struct(in); err != nil {
		return commerceapi.AddressPayload{}, err
	}
	return commerceapi.AddressPayload{
		FullName:     in.FullName,
		Phone:        in.Phone,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		State:        in.State,
		Pincode:      in.Pincode,
		Country:      b.country,
		AddressType:  in.AddressType,
		IsDefault:    in.IsDefault,
	}, nil
}

func normalize(in Input) Input {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.AddressType = enums.AddressType(strings.ToLower(strings.TrimSpace(string(in.AddressType))))
	return in
}

// DefaultOrFirst picks the address to preselect: the default one if any,
// otherwise the first in server order.
func DefaultOrFirst(list []Address) (Address, bool) {
	if len(list) == 0 {
		return Address{}, false
	}
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	return list[0], true
}

// Merge returns list with addr inserted or replaced by id. When addr is the
// new default every other address loses its default flag.
func Merge(list []Address, addr Address) []Address {
	out := make([]Address, 0, len(list)+1)
	replaced := false
	for _, a := range list {
		if a.ID == addr.ID {
			out = append(out, addr)
			replaced = true
			continue
		}
		if addr.IsDefault {
			a.IsDefault = false
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, addr)
	}
	return out
}

// Remove returns list without address id.
func Remove(list []Address, id int64) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
