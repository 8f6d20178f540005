package exiftool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	goexiftool "github.com/barasher/go-exiftool"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

// Tags requested from exiftool. Others are discarded.
var Tags = []string{"CreateDate", "SerialNumber", "InternalSerialNumber", "BodySerialNumber"}

// Tool is the subset of the go-exiftool API used by Client.
type Tool interface {
	ExtractMetadata(files ...string) []goexiftool.FileMetadata
	Close() error
}

// Option configures the client.
type Option func(*Client)

// WithTool injects a pre-built exiftool handle (primarily for tests).
func WithTool(tool Tool) Option {
	return func(c *Client) {
		if tool != nil {
			c.tool = tool
		}
	}
}

// WithLogger attaches a logger for per-file trace output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "exiftool")
	}
}

// Client wraps a stay-open exiftool process.
type Client struct {
	tool   Tool
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New starts exiftool using binary (a name on PATH or an absolute path).
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	client := &Client{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(client)
	}
	if client.tool == nil {
		et, err := goexiftool.NewExiftool(goexiftool.SetExiftoolBinaryPath(binary))
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "metadata", "start exiftool", binary, err)
		}
		client.tool = et
	}
	return client, nil
}

// Extract reads the embedded tags for one file. Missing tags are simply absent
// from the result; a per-file exiftool error is returned as ErrExternalTool.
func (c *Client) Extract(ctx context.Context, path string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := c.tool.ExtractMetadata(path)
	if len(results) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "metadata", "exiftool", path, errors.New("no result returned"))
	}
	result := results[0]
	if result.Err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "metadata", "exiftool", path, result.Err)
	}

	tags := make(map[string]string, len(Tags))
	for _, name := range Tags {
		raw, ok := result.Fields[name]
		if !ok {
			continue
		}
		if value := formatField(raw); value != "" {
			tags[name] = value
		}
	}
	logging.Trace(ctx, c.logger, "exiftool tags", logging.String("path", path), logging.Int("tag_count", len(tags)))
	return tags, nil
}

// Close stops the exiftool process. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.tool != nil {
			c.closeErr = c.tool.Close()
		}
	})
	return c.closeErr
}

func formatField(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
