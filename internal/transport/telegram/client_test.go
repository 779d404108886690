package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestClient_GetMembership(t *testing.T) {
	api := &fakeAPI{member: tgbotapi.ChatMember{Status: "member"}}
	c := NewClient(api)

	status, err := c.GetMembership(context.Background(), "mychannel", 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "member" {
		t.Errorf("status = %q, want member", status)
	}
	if api.memberCfg.SuperGroupUsername != "@mychannel" || api.memberCfg.UserID != 77 {
		t.Errorf("unexpected lookup config: %+v", api.memberCfg.ChatConfigWithUser)
	}
}

func TestClient_GetMembership_Error(t *testing.T) {
	api := &fakeAPI{memberErr: errors.New("Bad Request: user not found")}
	c := NewClient(api)

	if _, err := c.GetMembership(context.Background(), "@mychannel", 77); err == nil {
		t.Fatal("expected error")
	}
	if api.memberCfg.SuperGroupUsername != "@mychannel" {
		t.Errorf("leading @ must not be doubled, got %q", api.memberCfg.SuperGroupUsername)
	}
}

func TestClient_SendMessage_HTML(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api)

	if err := c.SendMessage(context.Background(), 5, "<b>hi</b>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ChatID != 5 || msgs[0].ParseMode != tgbotapi.ModeHTML {
		t.Errorf("unexpected message config: chat=%d mode=%q", msgs[0].ChatID, msgs[0].ParseMode)
	}
	if msgs[0].ReplyMarkup != nil {
		t.Error("plain message must not carry a keyboard")
	}
}

func TestClient_SendMessage_Error(t *testing.T) {
	c := NewClient(&fakeAPI{sendErr: errors.New("Forbidden: bot was blocked by the user")})
	if err := c.SendMessage(context.Background(), 5, "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_SendDocument(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api)

	if err := c.SendDocument(context.Background(), 5, "/data/book.pdf", "Enjoy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, ok := api.sent[0].(tgbotapi.DocumentConfig)
	if !ok {
		t.Fatalf("expected DocumentConfig, got %T", api.sent[0])
	}
	if doc.Caption != "Enjoy" {
		t.Errorf("caption = %q", doc.Caption)
	}
	if doc.File != tgbotapi.FilePath("/data/book.pdf") {
		t.Errorf("file = %v", doc.File)
	}
}

func TestClient_RemoveKeyboard(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api)

	if err := c.RemoveKeyboard(context.Background(), 5, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edit, ok := api.requests[0].(tgbotapi.EditMessageReplyMarkupConfig)
	if !ok {
		t.Fatalf("expected EditMessageReplyMarkupConfig, got %T", api.requests[0])
	}
	if edit.MessageID != 9 || edit.ReplyMarkup == nil || len(edit.ReplyMarkup.InlineKeyboard) != 0 {
		t.Errorf("unexpected edit: %+v", edit)
	}
}

func TestClient_Edit_NotModifiedIsNotAnError(t *testing.T) {
	c := NewClient(&fakeAPI{requestErr: errors.New("Bad Request: message is not modified")})
	if err := c.Edit(context.Background(), 5, 9, "same", tgbotapi.NewInlineKeyboardMarkup()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestClient_Edit_Error(t *testing.T) {
	c := NewClient(&fakeAPI{requestErr: errors.New("Bad Request: message to edit not found")})
	if err := c.Edit(context.Background(), 5, 9, "x", tgbotapi.NewInlineKeyboardMarkup()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_AnswerCallback(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api)

	if err := c.AnswerCallback(context.Background(), "cb-9", "done"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := api.callbackTexts(); len(got) != 1 || got[0] != "done" {
		t.Errorf("callback texts = %v", got)
	}
}
