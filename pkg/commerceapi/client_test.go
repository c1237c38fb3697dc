package commerceapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-core/pkg/auth"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://shop.test/api/",
		WithHTTPClient(&http.Client{Transport: rt}),
		WithTokenSource(auth.NewSession("opaque-token")),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

const cartBody = `{"id":7,"items":[{"id":11,"product":{"id":3,"title":"Kurta","slug":"kurta","price":"500.00","discount_price":null,"final_price":"500.00","inventory_count":9,"is_active":true},"quantity":3,"subtotal":"1500.00"}],"total_price":"1500.00"}`

func TestUpdateCartItemRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, cartBody), nil
	})

	cart, err := client.UpdateCartItem(context.Background(), 11, 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if captured.URL.String() != "http://shop.test/api/cart/update_item/" {
		t.Fatalf("unexpected url %s", captured.URL)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("unexpected method %s", captured.Method)
	}
	if captured.Header.Get("Authorization") != "Bearer opaque-token" {
		t.Fatalf("missing bearer header")
	}
	if payload["item_id"] != float64(11) || payload["quantity"] != float64(3) {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if !cart.Items[0].Subtotal.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("unexpected subtotal %s", cart.Items[0].Subtotal)
	}
	if cart.Items[0].Product.DiscountPrice.Valid {
		t.Fatalf("null discount price should decode as invalid")
	}
}

func TestMissingTokenFailsWithoutNetworkCall(t *testing.T) {
	called := false
	client, err := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(http.StatusOK, `{}`), nil
	})}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetCart(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeAuth) {
		t.Fatalf("expected AUTH_ERROR, got %v", err)
	}
	if called {
		t.Fatalf("transport should not be used without a credential")
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		code    pkgerrors.Code
		message string
	}{
		{name: "unauthorized", status: 401, body: `{"detail":"Given token not valid"}`, code: pkgerrors.CodeAuth},
		{name: "forbidden", status: 403, body: `{"detail":"nope"}`, code: pkgerrors.CodeForbidden, message: "nope"},
		{name: "not found", status: 404, body: `{"detail":"Not found."}`, code: pkgerrors.CodeNotFound, message: "Not found."},
		{name: "server error", status: 502, body: `bad gateway`, code: pkgerrors.CodeNetwork},
		{name: "throttled", status: 429, body: `{"detail":"slow down"}`, code: pkgerrors.CodeNetwork},
		{name: "business error", status: 400, body: `{"error":"Only 2 units available"}`, code: pkgerrors.CodeBusinessRule, message: "Only 2 units available"},
		{name: "non field errors", status: 400, body: `{"non_field_errors":["Only 1 units available in size M."]}`, code: pkgerrors.CodeBusinessRule, message: "Only 1 units available in size M."},
		{name: "conflict", status: 409, body: `{"detail":"Order cannot be cancelled. Current status: shipped"}`, code: pkgerrors.CodeBusinessRule, message: "Order cannot be cancelled. Current status: shipped"},
		{name: "field errors", status: 400, body: `{"pincode":["Ensure this field has no more than 6 characters."]}`, code: pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(*http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			})
			_, err := client.GetCart(context.Background())
			typed := pkgerrors.As(err)
			if typed == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if typed.Code() != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, typed.Code(), err)
			}
			if tc.message != "" && typed.Message() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, typed.Message())
			}
		})
	}
}

func TestFieldErrorsCarryDetails(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"phone":["This field is required."],"pincode":["Invalid."]}`), nil
	})
	_, err := client.CreateAddress(context.Background(), AddressPayload{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string][]string)
	if !ok || details["phone"][0] != "This field is required." {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.ListOrders(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNetwork || !typed.Retryable() {
		t.Fatalf("expected retryable NETWORK_ERROR, got %v", err)
	}
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	key := uuid.New()
	orderID := uuid.New()
	var header string
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		header = req.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(req.Body).Decode(&payload)
		return jsonResponse(http.StatusCreated, `{"id":"`+orderID.String()+`","order_status":"pending","payment_status":"pending","payment_method":"ONLINE","total_amount":"1869.00","payment":{"razorpay_order_id":"order_rzp_1","key_id":"rzp_test","amount":186900,"currency":"INR"}}`), nil
	})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		ShippingAddressID: 4,
		PaymentMethod:     enums.SettlementOnline,
		IdempotencyKey:    key,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if header != key.String() {
		t.Fatalf("unexpected idempotency header %q", header)
	}
	if payload["payment_method"] != "ONLINE" || payload["shipping_address_id"] != float64(4) {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, leaked := payload["IdempotencyKey"]; leaked {
		t.Fatalf("idempotency key must not be sent in the body")
	}
	if order.ID != orderID || !order.RequiresGateway() || order.Payment.GatewayOrderID != "order_rzp_1" {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestListAddressesAcceptsPaginatedBody(t *testing.T) {
	for _, body := range []string{
		`[{"id":1,"full_name":"A","is_default":true}]`,
		`{"count":1,"results":[{"id":1,"full_name":"A","is_default":true}]}`,
	} {
		body := body
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, body), nil
		})
		list, err := client.ListAddresses(context.Background())
		if err != nil {
			t.Fatalf("list addresses: %v", err)
		}
		if len(list) != 1 || list[0].ID != 1 || !list[0].IsDefault {
			t.Fatalf("unexpected list %+v for body %s", list, body)
		}
	}
}

func TestCheckWishlistQuery(t *testing.T) {
	var rawQuery string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		rawQuery = req.URL.RawQuery
		return jsonResponse(http.StatusOK, `{"wishlist_items":[2]}`), nil
	})
	ids, err := client.CheckWishlist(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if rawQuery != "product_id=1&product_id=2" {
		t.Fatalf("unexpected query %q", rawQuery)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestVerifyPaymentForwardsProof(t *testing.T) {
	orderID := uuid.New()
	var payload map[string]string
	var path string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		path = req.URL.Path
		_ = json.NewDecoder(req.Body).Decode(&payload)
		return jsonResponse(http.StatusOK, `{"verified":false,"message":"signature mismatch"}`), nil
	})

	res, err := client.VerifyPayment(context.Background(), orderID, PaymentProof{
		PaymentID:      "pay_1",
		GatewayOrderID: "order_rzp_1",
		Signature:      "sig",
		Extra:          map[string]string{"method": "upi"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if path != "/orders/"+orderID.String()+"/verify_payment/" {
		t.Fatalf("unexpected path %s", path)
	}
	if payload["razorpay_payment_id"] != "pay_1" || payload["razorpay_signature"] != "sig" || payload["method"] != "upi" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if res.Verified {
		t.Fatalf("expected unverified result")
	}
}

func TestRejectedCouponIsBusinessRule(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"valid":false,"error":"Coupon expired"}`), nil
	})
	_, err := client.ValidateCoupon(context.Background(), "OLD10")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBusinessRule || typed.Message() != "Coupon expired" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := NewClient("/relative"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
