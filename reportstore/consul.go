package reportstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// ConsulPublisher stores each record under "<prefix>/runs/<runId>" and the most recent run ID under
// "<prefix>/latest", in a single transaction.
type ConsulPublisher struct {
	consul *consul.Client
	prefix string
}

func NewConsulPublisher(config *consul.Config, prefix string) (*ConsulPublisher, error) {
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ConsulPublisher{consul: client, prefix: keyPrefix(prefix)}, nil
}

func newConsulPublisherFromURL(u *url.URL) (*ConsulPublisher, error) {
	config := consul.DefaultConfig()
	if u.Host != "" {
		config.Address = u.Host
	}
	if token := u.Query().Get("token"); token != "" {
		config.Token = token
	}
	return NewConsulPublisher(config, u.Path)
}

func (p *ConsulPublisher) RunKey(runID string) string {
	return p.prefix + "/runs/" + runID
}

func (p *ConsulPublisher) LatestKey() string {
	return p.prefix + "/latest"
}

func (p *ConsulPublisher) Publish(ctx context.Context, record RunRecord) error {
	data, err := record.MarshalJSON()
	if err != nil {
		return err
	}
	ops := consul.KVTxnOps{
		{Verb: consul.KVSet, Key: p.RunKey(record.RunID), Value: data},
		{Verb: consul.KVSet, Key: p.LatestKey(), Value: []byte(record.RunID)},
	}
	ok, resp, _, err := p.consul.KV().Txn(ops, (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if !ok {
		errs := make([]string, 0)
		if resp != nil {
			for _, te := range resp.Errors {
				errs = append(errs, te.What)
			}
		}
		return fmt.Errorf("Consul transaction failed: %s", strings.Join(errs, ", ")) //nolint:stylecheck
	}
	return nil
}

func (p *ConsulPublisher) Close() error { return nil }
