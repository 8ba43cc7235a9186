package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

func TestDecodeJSONBodyAcceptsCartWrite(t *testing.T) {
	body := `{"items":[{"menu_item_id":"MI001","quantity":2,"cart_id":"C9"}]}`
	r := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))

	var payload types.CartWriteRequest
	if err := DecodeJSONBody(httptest.NewRecorder(), r, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Quantity != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	body := `{"items":[{"menu_item_id":"","quantity":-1}]}`
	r := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))

	var payload types.CartWriteRequest
	err := DecodeJSONBody(httptest.NewRecorder(), r, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	if details["items[0].menu_item_id"] != "is required" {
		t.Fatalf("unexpected details %#v", details)
	}
	if details["items[0].quantity"] != "must be at least 0" {
		t.Fatalf("unexpected details %#v", details)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"items":`))

	var payload types.CartWriteRequest
	if err := DecodeJSONBody(httptest.NewRecorder(), r, &payload); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
