// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL)
	client.logf = func(string, ...any) {}
	return client, server
}

func TestLogin(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form-encoded", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "x" {
			t.Errorf("credentials not form-encoded: %v", r.PostForm)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"session_id": "s1",
			"access_token": "A",
			"access_token_expires_in": "2025-01-01 12:00:00.000000",
			"refresh_token": "R",
			"refresh_token_expires_in": "2025-01-08 12:00:00.000000",
			"token_type": "bearer",
			"name": "Site Admin",
			"username": "admin",
			"email": "admin@example.com",
			"userrole": "ADMIN"
		}`))
	})
	defer server.Close()

	resp, err := client.Login(context.Background(), "admin", "x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "A" || resp.RefreshToken != "R" {
		t.Errorf("tokens = %q/%q, want A/R", resp.AccessToken, resp.RefreshToken)
	}
	if resp.UserRole != "ADMIN" {
		t.Errorf("UserRole = %q", resp.UserRole)
	}
}

func TestLoginRejected(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"Incorrect username or password","data":null}`))
	})
	defer server.Close()

	_, err := client.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(err.Error(), "Incorrect username or password") {
		t.Errorf("backend message lost: %v", err)
	}
}

func TestMeUnwrapsEnvelope(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		// The refresh token is the bearer credential; this is the
		// backend's convention, not a mistake.
		if auth := r.Header.Get("Authorization"); auth != "Bearer R" {
			t.Errorf("Authorization = %q, want Bearer R", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"message": "User information retrieved successfully.",
			"data": {
				"id": "u1",
				"username": "admin",
				"user_email": "admin@example.com",
				"user_fullname": "Site Admin",
				"user_role": "ADMIN"
			}
		}`))
	})
	defer server.Close()

	user, err := client.Me(context.Background(), "R")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != "u1" || user.Name != "Site Admin" || user.Role != model.RoleAdmin {
		t.Errorf("user mapped incorrectly: %+v", user)
	}
}

func TestEnvelopeErrorWithSuccessStatus(t *testing.T) {
	// HTTP 200 with envelope status "error" is still a failure.
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"error","message":"Cannot update title of a conversation with no messages.","data":null}`))
	})
	defer server.Close()

	err := client.RenameConversation(context.Background(), "R", "c1", "new title")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if !strings.Contains(apiErr.Message, "no messages") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestCreateChat(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversation/create" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"conversation_id":null`) {
			t.Errorf("nil conversation id should serialize as null: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"conversation_id": "c1",
			"user_message": "hello",
			"bot_message": "Hi! How can I help?",
			"created_at": "2025-06-01T09:30:00.123456"
		}`))
	})
	defer server.Close()

	resp, err := client.CreateChat(context.Background(), "R", CreateChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if resp.ConversationID != "c1" {
		t.Errorf("ConversationID = %q", resp.ConversationID)
	}
	if resp.BotMessage == "" {
		t.Error("bot message missing")
	}
	if resp.CreatedAt.IsZero() {
		t.Error("naive ISO timestamp not parsed")
	}
}

func TestCreateChatContinuation(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"conversation_id":"c1"`) {
			t.Errorf("existing id not attached: %s", body)
		}
		w.Write([]byte(`{"conversation_id":"c1","user_message":"hi","bot_message":"...","created_at":"2025-06-01T09:31:00"}`))
	})
	defer server.Close()

	id := "c1"
	resp, err := client.CreateChat(context.Background(), "R", CreateChatRequest{Message: "hi", ConversationID: &id})
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if resp.ConversationID != "c1" {
		t.Errorf("continuation changed id: %q", resp.ConversationID)
	}
}

func TestGetConversationNormalizesSender(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"conversation_id": "c1",
			"messages": [
				{"id":"m1","sender_type":"user","content":"hello","created_at":"2025-06-01T09:30:00"},
				{"id":"m2","sender_type":"bot","content":"hi","created_at":"2025-06-01T09:30:05"}
			]
		}`))
	})
	defer server.Close()

	messages, err := client.GetConversation(context.Background(), "R", "c1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[0].Sender != model.SenderUser {
		t.Errorf("first sender = %q", messages[0].Sender)
	}
	if messages[1].Sender != model.SenderAssistant {
		t.Errorf("bot not normalized to assistant: %q", messages[1].Sender)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"Conversation not found or access denied.","data":null}`))
	})
	defer server.Close()

	_, err := client.GetConversation(context.Background(), "R", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListConversationsPreservesOrder(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversation/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"conversations":[
			{"id":"c3","title":"newest","created_at":"2025-06-03T00:00:00","updated_at":"2025-06-03T00:00:00"},
			{"id":"c1","title":"oldest","created_at":"2025-06-01T00:00:00","updated_at":"2025-06-01T00:00:00"},
			{"id":"c2","title":"middle","created_at":"2025-06-02T00:00:00","updated_at":"2025-06-02T00:00:00"}
		]}`))
	})
	defer server.Close()

	conversations, err := client.ListConversations(context.Background(), "R")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	got := []string{conversations[0].ID, conversations[1].ID, conversations[2].ID}
	want := []string{"c3", "c1", "c2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("server order not preserved: got %v, want %v", got, want)
		}
	}
}

func TestListUsersPagination(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "25" {
			t.Errorf("page_size = %q", got)
		}
		w.Write([]byte(`{"status":"success","message":null,"data":{
			"users":[{"id":"u1","username":"alice","user_fullname":"Alice","user_email":"a@example.com","user_role":"USER","created_at":"2025-01-01 00:00:00","updated_at":"2025-01-01 00:00:00"}],
			"total_pages": 3,
			"current_page": 2
		}}`))
	})
	defer server.Close()

	page, err := client.ListUsers(context.Background(), "R", 2, 25)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.TotalPages != 3 || page.CurrentPage != 2 {
		t.Errorf("pagination = %d/%d", page.CurrentPage, page.TotalPages)
	}
	if len(page.Users) != 1 || page.Users[0].Name != "Alice" {
		t.Errorf("users = %+v", page.Users)
	}
}

func TestDeleteCollectionNoContent(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	if err := client.DeleteCollection(context.Background(), "R", "col1"); err != nil {
		t.Errorf("DeleteCollection: %v", err)
	}
}

func TestUploadFileMultipart(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		if header.Filename != "handbook.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"f1","collection_id":"col1","name":"handbook.pdf","type":"application/pdf","size":11,"uploaded_at":"2025-06-01T00:00:00"}`))
	})
	defer server.Close()

	file, err := client.UploadFile(context.Background(), "R", "col1", "handbook.pdf", strings.NewReader("pdf content"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if file.ID != "f1" || file.Name != "handbook.pdf" {
		t.Errorf("file = %+v", file)
	}
}

func TestEmptyBodyIsError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	_, err := client.Me(context.Background(), "R")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestTimestampLayouts(t *testing.T) {
	tests := []string{
		`"2025-06-01T09:30:00Z"`,
		`"2025-06-01T09:30:00.123456"`,
		`"2025-06-01 09:30:00.123456"`,
		`"2025-06-01T09:30:00"`,
		`"2025-06-01 09:30:00"`,
	}
	for _, raw := range tests {
		var ts Timestamp
		if err := ts.UnmarshalJSON([]byte(raw)); err != nil {
			t.Errorf("UnmarshalJSON(%s): %v", raw, err)
		}
		if ts.IsZero() {
			t.Errorf("UnmarshalJSON(%s) produced zero time", raw)
		}
	}

	var ts Timestamp
	if err := ts.UnmarshalJSON([]byte(`null`)); err != nil {
		t.Errorf("null should decode to zero time: %v", err)
	}
	if !ts.IsZero() {
		t.Error("null decoded to non-zero time")
	}
	if err := ts.UnmarshalJSON([]byte(`"yesterday"`)); err == nil {
		t.Error("garbage timestamp should error")
	}
}
