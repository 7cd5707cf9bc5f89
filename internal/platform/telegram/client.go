package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client provides the minimal Telegram Bot API surface the gate needs:
// long-poll updates, replies, and single-use invite links.
type Client struct {
	httpClient *http.Client
	pollClient *http.Client
	baseURL    string
	token      string
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Long polling outlives the regular timeout; the request context
		// bounds it instead.
		pollClient: &http.Client{},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// APIError is a non-ok Bot API response, e.g. 403 when the bot lacks admin
// rights in the gated chat.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

type apiResponse[T any] struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
}

type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// ChatInviteLink is the platform's invite credential; the gate treats the
// link itself as opaque.
type ChatInviteLink struct {
	InviteLink  string `json:"invite_link"`
	MemberLimit int    `json:"member_limit"`
}

type ChatMember struct {
	Status         string `json:"status"`
	CanInviteUsers bool   `json:"can_invite_users"`
}

// GetMe identifies the bot; used as a startup credential check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out User
	if err := call(ctx, c, c.httpClient, "getMe", nil, &out); err != nil {
		return nil, fmt.Errorf("getMe: %w", err)
	}
	return &out, nil
}

// GetUpdates long-polls for updates after offset for up to timeout seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout+10)*time.Second)
	defer cancel()

	params := url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(timeout)},
	}
	var out []Update
	if err := call(ctx, c, c.pollClient, "getUpdates", params, &out); err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	return out, nil
}

// SendMessage posts text into a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	var out Message
	if err := call(ctx, c, c.httpClient, "sendMessage", params, &out); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// CreateChatInviteLink mints an invite link for chatID constrained to
// memberLimit joins and no expiry.
func (c *Client) CreateChatInviteLink(ctx context.Context, chatID int64, memberLimit int) (*ChatInviteLink, error) {
	params := url.Values{
		"chat_id":      {strconv.FormatInt(chatID, 10)},
		"member_limit": {strconv.Itoa(memberLimit)},
	}
	var out ChatInviteLink
	if err := call(ctx, c, c.httpClient, "createChatInviteLink", params, &out); err != nil {
		return nil, fmt.Errorf("createChatInviteLink: %w", err)
	}
	return &out, nil
}

// RevokeChatInviteLink invalidates a previously minted invite link so it
// can no longer be used to join chatID.
func (c *Client) RevokeChatInviteLink(ctx context.Context, chatID int64, inviteLink string) error {
	params := url.Values{
		"chat_id":     {strconv.FormatInt(chatID, 10)},
		"invite_link": {inviteLink},
	}
	var out ChatInviteLink
	if err := call(ctx, c, c.httpClient, "revokeChatInviteLink", params, &out); err != nil {
		return fmt.Errorf("revokeChatInviteLink: %w", err)
	}
	return nil
}

// GetChatMember fetches the member record for userID in chatID; used to
// verify the bot can mint invites before the gate goes live.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	var out ChatMember
	if err := call(ctx, c, c.httpClient, "getChatMember", params, &out); err != nil {
		return nil, fmt.Errorf("getChatMember: %w", err)
	}
	return &out, nil
}

func call[T any](ctx context.Context, c *Client, client *http.Client, method string, params url.Values, out *T) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var req *http.Request
	var err error
	if params != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Ok {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Code: code, Description: envelope.Description}
	}
	*out = envelope.Result
	return nil
}
