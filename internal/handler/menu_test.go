package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/catalog"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/handler"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/memstore"
)

func setupMenuRouter(t *testing.T) (*chi.Mux, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := catalog.NewService(store, time.Minute, quietLogger())
	h := handler.NewMenuHandler(svc, quietLogger())
	r := chi.NewRouter()
	r.Route("/menu", func(r chi.Router) { h.RegisterRoutes(r, passthrough) })
	return r, store
}

func latteBody() map[string]interface{} {
	return map[string]interface{}{
		"name":        map[string]string{"EN": "Latte", "AR": "لاتيه"},
		"description": map[string]string{"EN": "Espresso with milk", "AR": "إسبريسو بالحليب"},
		"price":       map[string]interface{}{"EN": 18, "AR": "١٨ درهم"},
		"category":    "coffee",
		"sizes": []map[string]interface{}{
			{"name": map[string]string{"EN": "Small", "AR": "صغير"}, "price": map[string]interface{}{"EN": 18, "AR": "١٨"}, "isDefault": true},
			{"name": map[string]string{"EN": "Large", "AR": "كبير"}, "price": map[string]interface{}{"EN": "22.50", "AR": "٢٢٫٥"}},
		},
	}
}

func TestMenuCreateGetList(t *testing.T) {
	router, _ := setupMenuRouter(t)

	rr := doRequest(t, router, "POST", "/menu", latteBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rr.Code, rr.Body.String())
	}
	created := decodeMap(t, rr)
	id := created["id"].(string)
	sizes := created["sizes"].([]interface{})
	if len(sizes) != 2 {
		t.Fatalf("sizes: got %d", len(sizes))
	}
	if price := sizes[1].(map[string]interface{})["price"].(map[string]interface{})["EN"]; price != 22.5 {
		t.Fatalf("size price: got %#v, want 22.5", price)
	}

	rr = doRequest(t, router, "GET", "/menu/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	if got := decodeMap(t, rr); got["name"].(map[string]interface{})["AR"] != "لاتيه" {
		t.Fatalf("arabic name lost: %v", got["name"])
	}

	rr = doRequest(t, router, "GET", "/menu?category=coffee&search=milk&page=1&limit=10", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: got %d", rr.Code)
	}
	list := decodeMap(t, rr)
	if items := list["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("list items: got %d", len(items))
	}
	pagination := list["pagination"].(map[string]interface{})
	if pagination["totalItems"] != float64(1) || pagination["totalPages"] != float64(1) || pagination["itemsPerPage"] != float64(10) {
		t.Fatalf("pagination: %v", pagination)
	}

	rr = doRequest(t, router, "GET", "/menu?category=tea", nil)
	if items := decodeMap(t, rr)["items"].([]interface{}); len(items) != 0 {
		t.Fatalf("tea filter should be empty, got %d", len(items))
	}
}

func TestMenuCreate_Validation(t *testing.T) {
	router, _ := setupMenuRouter(t)

	body := latteBody()
	body["name"] = map[string]string{"EN": "Latte"}
	body["category"] = "juice"

	rr := doRequest(t, router, "POST", "/menu", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	fields := errorFields(t, decodeMap(t, rr))
	if !fields["name.AR"] || !fields["category"] {
		t.Fatalf("expected name.AR and category errors, got %v", fields)
	}
}

func TestMenuUpdateAndDelete(t *testing.T) {
	router, _ := setupMenuRouter(t)

	rr := doRequest(t, router, "POST", "/menu", latteBody())
	id := decodeMap(t, rr)["id"].(string)

	body := latteBody()
	body["price"] = map[string]interface{}{"EN": 20, "AR": "٢٠ درهم"}
	rr = doRequest(t, router, "PUT", "/menu/"+id, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if price := decodeMap(t, rr)["price"].(map[string]interface{})["EN"]; price != float64(20) {
		t.Fatalf("updated price: got %v", price)
	}

	// The cached read must see the update.
	rr = doRequest(t, router, "GET", "/menu/"+id, nil)
	if price := decodeMap(t, rr)["price"].(map[string]interface{})["EN"]; price != float64(20) {
		t.Fatalf("read after update: got %v", price)
	}

	rr = doRequest(t, router, "DELETE", "/menu/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rr.Code)
	}
	rr = doRequest(t, router, "GET", "/menu/"+id, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d, want 404", rr.Code)
	}
	if resp := decodeMap(t, rr); resp["error"] != "Menu item not found" {
		t.Fatalf("error: got %v", resp["error"])
	}

	rr = doRequest(t, router, "PUT", "/menu/"+id, latteBody())
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update missing: got %d, want 404", rr.Code)
	}
}
