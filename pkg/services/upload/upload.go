// Package upload sends files picked in upload fields to the endpoint named by
// the field's uploadOnAddingFile attribute and commits the result into the
// form through the field's binding.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// AttrUpload is the node attribute configuring uploads.
const AttrUpload = "uploadOnAddingFile"

// Mode selects how the file travels to the endpoint.
type Mode string

const (
	ModeMultipart Mode = "multipart"
	ModeBase64    Mode = "base64"
)

// Messages shown on the field when a file is rejected or fails to upload.
const (
	MessageGeneric  = "Upload failed. Please try again."
	messageType     = "Only %s files are allowed"
	messageSize     = "Files must be %d KB or smaller"
	maxResponseSize = 8 << 20
)

var (
	// ErrNoConfig is returned for fields without an upload attribute.
	ErrNoConfig = errors.New("upload: field has no uploadOnAddingFile config")
	// ErrRejected wraps files that fail the field's fileType/maxSizeInKb rules.
	ErrRejected = errors.New("upload: file rejected")
)

// Config is the decoded uploadOnAddingFile attribute.
type Config struct {
	Type Mode   `json:"type"`
	URL  string `json:"url"`
}

// ConfigFromNode reads the upload config of a field node.
func ConfigFromNode(node *schema.Node) (Config, error) {
	raw, ok := node.Attr(AttrUpload)
	if !ok || raw == nil {
		return Config{}, ErrNoConfig
	}
	attrs, ok := raw.(map[string]any)
	if !ok {
		return Config{}, fmt.Errorf("upload: %s must be an object, got %T", AttrUpload, raw)
	}
	cfg := Config{Type: Mode(stringAttr(attrs, "type")), URL: stringAttr(attrs, "url")}
	switch cfg.Type {
	case ModeMultipart, ModeBase64:
	case "":
		cfg.Type = ModeMultipart
	default:
		return Config{}, fmt.Errorf("upload: unsupported type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return Config{}, fmt.Errorf("upload: url is required")
	}
	return cfg, nil
}

func stringAttr(attrs map[string]any, key string) string {
	value, _ := attrs[key].(string)
	return value
}

// File is one picked file.
type File struct {
	ID   string
	Name string
	MIME string
	Slot int
	Data []byte
}

// DataURL encodes the file as a data URL.
func (f File) DataURL() string {
	mime := f.MIME
	if mime == "" {
		mime = http.DetectContentType(f.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Value is the form value stored per uploaded file.
type Value struct {
	FileID         string `json:"fileId"`
	FileName       string `json:"fileName"`
	FileURL        string `json:"fileUrl,omitempty"`
	DataURL        string `json:"dataURL,omitempty"`
	UploadResponse any    `json:"uploadResponse,omitempty"`
}

// Map returns the value in the plain shape held by the field store.
func (v Value) Map() map[string]any {
	out := map[string]any{
		"fileId":   v.FileID,
		"fileName": v.FileName,
		"fileUrl":  v.FileURL,
	}
	if v.DataURL != "" {
		out["dataURL"] = v.DataURL
	}
	if v.UploadResponse != nil {
		out["uploadResponse"] = v.UploadResponse
	}
	return out
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSessionID fixes the session id sent with every upload.
func WithSessionID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client uploads files on behalf of one form session.
type Client struct {
	httpClient *http.Client
	sessionID  string
	logger     *zap.Logger
}

// New constructs a Client with a random session id.
func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sessionID:  uuid.NewString(),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SessionID returns the id sent with every upload.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Check applies the fileType and maxSizeInKb rules of node to f.
func Check(node *schema.Node, f File) error {
	rules, err := validation.Rules(node)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		message, _ := rule["errorMessage"].(string)
		if raw, ok := rule[validation.KeyFileType].([]any); ok && len(raw) > 0 {
			allowed := make([]string, 0, len(raw))
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
			match := false
			for _, item := range raw {
				name := strings.ToLower(strings.TrimPrefix(fmt.Sprint(item), "."))
				allowed = append(allowed, name)
				if name == ext {
					match = true
				}
			}
			if !match {
				if message == "" {
					message = fmt.Sprintf(messageType, strings.Join(allowed, ", "))
				}
				return fmt.Errorf("%w: %s", ErrRejected, message)
			}
		}
		if limit, ok := rule[validation.KeyMaxSizeInKb].(float64); ok && limit > 0 {
			if float64(len(f.Data)) > limit*1024 {
				if message == "" {
					message = fmt.Sprintf(messageSize, int(limit))
				}
				return fmt.Errorf("%w: %s", ErrRejected, message)
			}
		}
	}
	return nil
}

// Upload posts f to the configured endpoint. The file URL is read from the
// data.fileUrl member of the JSON response.
func (c *Client) Upload(ctx context.Context, cfg Config, f File) (Value, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	var (
		body        io.Reader
		contentType string
		value       = Value{FileID: f.ID, FileName: f.Name}
	)
	switch cfg.Type {
	case ModeBase64:
		value.DataURL = f.DataURL()
		payload, err := json.Marshal(map[string]any{
			"sessionId": c.sessionID,
			"fileId":    f.ID,
			"slot":      strconv.Itoa(f.Slot),
			"dataURL":   value.DataURL,
		})
		if err != nil {
			return Value{}, fmt.Errorf("upload: encode: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	default:
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		fields := [][2]string{{"sessionId", c.sessionID}, {"fileId", f.ID}, {"slot", strconv.Itoa(f.Slot)}}
		for _, field := range fields {
			if err := writer.WriteField(field[0], field[1]); err != nil {
				return Value{}, fmt.Errorf("upload: encode: %w", err)
			}
		}
		part, err := writer.CreateFormFile("file", f.Name)
		if err != nil {
			return Value{}, fmt.Errorf("upload: encode: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return Value{}, fmt.Errorf("upload: encode: %w", err)
		}
		if err := writer.Close(); err != nil {
			return Value{}, fmt.Errorf("upload: encode: %w", err)
		}
		body, contentType = buf, writer.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, body)
	if err != nil {
		return Value{}, fmt.Errorf("upload: request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Value{}, fmt.Errorf("upload: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Value{}, fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}

	var response any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&response); err != nil && !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("upload: decode response: %w", err)
	}
	value.UploadResponse = response
	if envelope, ok := response.(map[string]any); ok {
		if data, ok := envelope["data"].(map[string]any); ok {
			value.FileURL, _ = data["fileUrl"].(string)
		}
	}

	c.logger.Debug("file uploaded",
		zap.String("session", c.sessionID),
		zap.String("file", f.ID),
		zap.String("url", value.FileURL))
	return value, nil
}

// Field uploads f for the mounted upload field id of form and appends the
// result to the field value. Failures are surfaced as the field error. When
// the field unmounts while the upload is in flight the result is dropped and
// engine.ErrUnmounted is returned.
func (c *Client) Field(ctx context.Context, form *engine.Form, id string, f File) (Value, error) {
	binding, ok := form.Bind(id)
	if !ok {
		return Value{}, fmt.Errorf("upload: %w: %s", engine.ErrUnknownField, id)
	}
	props, err := binding.Props()
	if err != nil {
		return Value{}, err
	}
	cfg, err := ConfigFromNode(props.Schema)
	if err != nil {
		return Value{}, err
	}
	if err := Check(props.Schema, f); err != nil {
		_ = binding.SetError(strings.TrimPrefix(err.Error(), ErrRejected.Error()+": "))
		return Value{}, err
	}

	value, err := c.Upload(ctx, cfg, f)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("field", id), zap.Error(err))
		if setErr := binding.SetError(MessageGeneric); errors.Is(setErr, engine.ErrUnmounted) {
			return Value{}, setErr
		}
		return Value{}, err
	}
	if err := Commit(binding, value); err != nil {
		return Value{}, err
	}
	return value, nil
}

// Commit appends value to the file list held by the bound field.
func Commit(binding *engine.Binding, value Value) error {
	return binding.Update(func(current any) (any, error) {
		existing, _ := current.([]any)
		list := make([]any, 0, len(existing)+1)
		list = append(list, existing...)
		return append(list, value.Map()), nil
	})
}

// Remove drops the file with fileID from the bound field.
func Remove(binding *engine.Binding, fileID string) error {
	return binding.Update(func(current any) (any, error) {
		existing, _ := current.([]any)
		list := make([]any, 0, len(existing))
		for _, item := range existing {
			if entry, ok := item.(map[string]any); ok && entry["fileId"] == fileID {
				continue
			}
			list = append(list, item)
		}
		return list, nil
	})
}
