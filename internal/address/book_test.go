package address

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type stubAPI struct {
	list        []commerceapi.Address
	created     *commerceapi.Address
	err         error
	calls       int
	lastPayload commerceapi.AddressPayload
}

func (s *stubAPI) ListAddresses(context.Context) ([]commerceapi.Address, error) {
	s.calls++
	return s.list, s.err
}

func (s *stubAPI) CreateAddress(_ context.Context, p commerceapi.AddressPayload) (*commerceapi.Address, error) {
	s.calls++
	s.lastPayload = p
	return s.created, s.err
}

func (s *stubAPI) UpdateAddress(_ context.Context, _ int64, p commerceapi.AddressPayload) (*commerceapi.Address, error) {
	s.calls++
	s.lastPayload = p
	return s.created, s.err
}

func (s *stubAPI) DeleteAddress(context.Context, int64) error {
	s.calls++
	return s.err
}

func validInput() Input {
	return Input{
		FullName:     " Asha Rao ",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
		AddressType:  "Home",
	}
}

func TestCreateNormalizesAndForcesCountry(t *testing.T) {
	t.Parallel()

	api := &stubAPI{created: &commerceapi.Address{ID: 5}}
	book, err := NewBook(api, "", nil)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	addr, err := book.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if addr.ID != 5 {
		t.Fatalf("unexpected address %+v", addr)
	}
	if api.lastPayload.Country != DefaultCountry || api.lastPayload.FullName != "Asha Rao" || api.lastPayload.AddressType != enums.AddressTypeHome {
		t.Fatalf("unexpected payload %+v", api.lastPayload)
	}
}

func TestCreateValidatesLocally(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	book, _ := NewBook(api, "India", nil)
	in := validInput()
	in.Pincode = "5600"
	in.Phone = ""

	_, err := book.Create(context.Background(), in)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := typed.Details().(map[string]string)
	if details["pincode"] == "" || details["phone"] == "" {
		t.Fatalf("expected field details, got %v", details)
	}
	if api.calls != 0 {
		t.Fatalf("invalid input must not reach the server")
	}
}

func TestServerRejectionPassesThrough(t *testing.T) {
	t.Parallel()

	api := &stubAPI{err: pkgerrors.New(pkgerrors.CodeValidation, "pincode: Invalid.")}
	book, _ := NewBook(api, "India", nil)
	if _, err := book.Update(context.Background(), 3, validInput()); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected server validation error, got %v", err)
	}
}

func TestDefaultOrFirst(t *testing.T) {
	t.Parallel()

	if _, ok := DefaultOrFirst(nil); ok {
		t.Fatalf("empty list has no selection")
	}
	list := []Address{{ID: 1}, {ID: 2, IsDefault: true}, {ID: 3}}
	if got, _ := DefaultOrFirst(list); got.ID != 2 {
		t.Fatalf("expected default address, got %d", got.ID)
	}
	if got, _ := DefaultOrFirst(list[:1]); got.ID != 1 {
		t.Fatalf("expected first address, got %d", got.ID)
	}
}

func TestMergeAndRemove(t *testing.T) {
	t.Parallel()

	list := []Address{{ID: 1, IsDefault: true}, {ID: 2}}
	merged := Merge(list, Address{ID: 3, IsDefault: true})
	if len(merged) != 3 || merged[0].IsDefault || !merged[2].IsDefault {
		t.Fatalf("unexpected merge %+v", merged)
	}
	merged = Merge(merged, Address{ID: 2, City: "Pune"})
	if len(merged) != 3 || merged[1].City != "Pune" {
		t.Fatalf("expected in-place replace, got %+v", merged)
	}
	if list[0].IsDefault != true {
		t.Fatalf("merge must not mutate its input")
	}
	if got := Remove(merged, 2); len(got) != 2 {
		t.Fatalf("unexpected remove %+v", got)
	}
}
