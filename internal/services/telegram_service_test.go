package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifyOrderStatusChanged(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.baseURL = srv.URL

	err := svc.NotifyOrderStatusChanged(context.Background(), OrderStatusNotification{
		OrderID:   "order-1",
		Status:    "Shipped",
		BuyerName: "<Alice>",
		ItemCount: 3,
		ChangedBy: "Root",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if path != "/botbot-token/sendMessage" {
		t.Fatalf("unexpected path %s", path)
	}
	if got.ChatID != "42" || got.ParseMode != "HTML" {
		t.Fatalf("unexpected message %+v", got)
	}
	for _, want := range []string{"order-1", "Shipped", "&lt;Alice&gt;", "<b>Products:</b> 3", "Root"} {
		if !strings.Contains(got.Text, want) {
			t.Fatalf("message %q missing %q", got.Text, want)
		}
	}
}

func TestNotifyOrderStatusChangedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.baseURL = srv.URL

	if err := svc.NotifyOrderStatusChanged(context.Background(), OrderStatusNotification{OrderID: "x"}); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestTelegramDisabled(t *testing.T) {
	svc := NewTelegramService("", "")
	if svc.Enabled() {
		t.Fatalf("service without token must be disabled")
	}
	svc.baseURL = "http://127.0.0.1:0"
	if err := svc.NotifyOrderStatusChanged(context.Background(), OrderStatusNotification{OrderID: "x"}); err != nil {
		t.Fatalf("disabled service must not fail: %v", err)
	}
}
