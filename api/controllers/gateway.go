package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/gateway"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/validators"
)

const maxCallbackBody = 64 << 10

// GatewayCallbacks receives payment outcomes for pending hosted handoffs.
type GatewayCallbacks interface {
	Complete(gatewayOrderID string, result gateway.Result) error
	Fail(gatewayOrderID, message string) error
	Cancel(gatewayOrderID string) error
}

var (
	paymentIDKeys = []string{"razorpay_payment_id", "payment_id"}
	orderIDKeys   = []string{"razorpay_order_id", "order_id"}
	signatureKeys = []string{"razorpay_signature", "signature"}
	reasonKeys    = []string{"reason", "error[description]", "error_description"}
)

type successCallback struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

// GatewaySuccess forwards the gateway's success payload to the waiting checkout.
func GatewaySuccess(callbacks GatewayCallbacks, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID := chi.URLParam(r, "gatewayOrderID")
		fields, err := callbackFields(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := gateway.Result{
			PaymentID:      take(fields, paymentIDKeys),
			GatewayOrderID: take(fields, orderIDKeys),
			Signature:      take(fields, signatureKeys),
			Extra:          fields,
		}
		if err := validators.Struct(successCallback{PaymentID: result.PaymentID}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result.GatewayOrderID != "" && result.GatewayOrderID != orderID {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id does not match callback path"))
			return
		}
		result.GatewayOrderID = orderID
		if len(result.Extra) == 0 {
			result.Extra = nil
		}

		if err := callbacks.Complete(orderID, result); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "gateway_order_id", orderID), "gateway.callback.success")
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}

// GatewayFailure reports a declined payment.
func GatewayFailure(callbacks GatewayCallbacks, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID := chi.URLParam(r, "gatewayOrderID")
		fields, err := callbackFields(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		reason := take(fields, reasonKeys)

		if err := callbacks.Fail(orderID, reason); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"gateway_order_id": orderID, "reason": reason}), "gateway.callback.failure")
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}

// GatewayCancel reports that the shopper dismissed the payment page.
func GatewayCancel(callbacks GatewayCallbacks, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID := chi.URLParam(r, "gatewayOrderID")

		if err := callbacks.Cancel(orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "gateway_order_id", orderID), "gateway.callback.cancel")
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}

// callbackFields flattens a form or JSON body into string fields. Nested JSON
// values are kept as their JSON text.
func callbackFields(r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCallbackBody)
	fields := map[string]string{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json body")
		}
		for k, v := range raw {
			switch value := v.(type) {
			case nil:
			case string:
				fields[k] = value
			case json.Number:
				fields[k] = value.String()
			case bool:
				fields[k] = strconv.FormatBool(value)
			default:
				encoded, err := json.Marshal(value)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json body")
				}
				fields[k] = string(encoded)
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	for k, values := range r.PostForm {
		if len(values) > 0 {
			fields[k] = values[0]
		}
	}
	return fields, nil
}

// take removes and returns the first non-empty value among keys.
func take(fields map[string]string, keys []string) string {
	var out string
	for _, key := range keys {
		if v := strings.TrimSpace(fields[key]); v != "" && out == "" {
			out = v
		}
		delete(fields, key)
	}
	return out
}
