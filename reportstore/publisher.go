package reportstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// DefaultKeyPrefix is the key or path prefix used by the Redis and Consul publishers when the target
// URL doesn't specify one.
const DefaultKeyPrefix = "integration-harness"

// Publisher stores run records somewhere.
type Publisher interface {
	Publish(ctx context.Context, record RunRecord) error
	Close() error
}

// NewPublisher creates a Publisher for a target given as a URL:
//
//	redis://host:port[/db][?prefix=name]
//	consul://host:port[/prefix][?token=x]
//	dynamodb://table[?region=r&endpoint=url]
//	file:///path/to/record.json, or just a file path
func NewPublisher(target string) (Publisher, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // a one-letter scheme is a Windows drive
		return NewFilePublisher(target), nil
	}
	switch u.Scheme {
	case "file":
		return NewFilePublisher(filepath.FromSlash(u.Path)), nil
	case "redis", "rediss":
		return newRedisPublisherFromURL(u)
	case "consul":
		return newConsulPublisherFromURL(u)
	case "dynamodb":
		return newDynamoDBPublisherFromURL(u)
	default:
		return nil, fmt.Errorf("unsupported report target %q", target)
	}
}

// FilePublisher writes each record to a JSON file, replacing any previous contents.
type FilePublisher struct {
	path string
}

func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

func (p *FilePublisher) Path() string { return p.path }

func (p *FilePublisher) Publish(_ context.Context, record RunRecord) error {
	return WriteJSONFile(p.path, record)
}

func (p *FilePublisher) Close() error { return nil }

// WriteJSONFile writes a record to a file as JSON, creating the parent directory if necessary.
func WriteJSONFile(path string, record RunRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("can't create report file %s: %w", path, err)
	}
	w := jwriter.NewStreamingWriter(f, 4096)
	record.WriteToJSONWriter(&w)
	_ = w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("error writing report file %s: %w", path, err)
	}
	return f.Close()
}

func keyPrefix(value string) string {
	value = strings.Trim(value, "/")
	if value == "" {
		return DefaultKeyPrefix
	}
	return value
}
