package teams

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout is how alert timestamps are rendered in the card.
const timestampLayout = "15:04 PM 01/02/2006"

// Home is the user's registered home address.
type Home struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	ApartmentNo string `json:"apartment_no"`
}

// User identifies who hit the error.
type User struct {
	UserName          string `json:"user_name"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PhoneNumber       string `json:"phone_number"`
	MobilePhoneNumber string `json:"mobile_phone_number"`
	UserHome          *Home  `json:"user_home"`
}

// SystemError is the failure the copilot reported.
type SystemError struct {
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
	ErrorCount   string `json:"error_count"`
	Timestamp    string `json:"timestamp"`
}

// Request is the body of /ms_teams_error_messenger. Unknown fields are ignored.
type Request struct {
	UserRequestText    string       `json:"user_request_text"`
	MentionUsers       bool         `json:"mention_users"`
	Topic              string       `json:"topic"`
	Subtopic           string       `json:"subtopic"`
	SessionID          string       `json:"session_id"`
	SystemErrorMessage *SystemError `json:"system_error_message"`
	BuildEnv           string       `json:"build_env"`
	Timestamp          string       `json:"timestamp"`
	AdditionalText     string       `json:"additional_text"`
	RequestOrigin      string       `json:"request_origin"`
	Verbose            bool         `json:"verbose"`
	User               *User        `json:"user"`
	AdditionalInfo     []any        `json:"additional_info"`
}

// Card is an Office 365 connector MessageCard.
type Card struct {
	Type    string `json:"@type"`
	Context string `json:"@context"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// line renders one "• Key: value" bullet.
func line(key string, value any) string {
	label := strings.ReplaceAll(key, "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + strings.ToLower(label[1:])
	}
	return fmt.Sprintf("\n\t• %s: %v\n", label, value)
}

// BuildCard formats req as an alert card. The server clock stamps the card;
// any caller timestamp is replaced. mention is prepended when the request
// asks for it.
func BuildCard(req Request, mention string, now time.Time) Card {
	userName := "Unknown User"
	if req.User != nil && req.User.UserName != "" {
		userName = req.User.UserName
	}

	var parts []string
	if req.MentionUsers && mention != "" {
		parts = append(parts, "<at>"+mention+"</at>")
	}
	if req.User != nil && req.User.PhoneNumber != "" {
		parts = append(parts, line("user_phone_number", req.User.PhoneNumber))
	}
	errMessage := ""
	if req.SystemErrorMessage != nil {
		errMessage = req.SystemErrorMessage.ErrorMessage
	}
	parts = append(parts,
		line("time_stamp", now.Format(timestampLayout)),
		line("user_request_message", req.UserRequestText),
		line("session_id", req.SessionID),
		line("originating_topic", req.Topic),
		line("originating_subtopic", req.Subtopic),
		line("system_error_message", errMessage),
		line("request_origin", req.RequestOrigin),
		line("build_env", req.BuildEnv),
	)
	for _, item := range req.AdditionalInfo {
		parts = append(parts, line("additional_info", item))
	}

	return Card{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("\nUser: %s Encountered An Error", userName),
		Text:    strings.Join(parts, "\n"),
	}
}
