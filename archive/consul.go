package archive

import (
	"context"
	"fmt"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"golang.org/x/exp/slices"
)

// consul is limited to 64 operations per transaction
const consulMaxTxnOps = 64

// ConsulStore records each field of a run as its own key, under prefix/key/field.
type ConsulStore struct {
	consul  *consul.Client
	address string
	prefix  string
}

// NewConsulStore creates a store for the Consul agent at address. An empty address uses the
// Consul client defaults, including CONSUL_HTTP_ADDR.
func NewConsulStore(address, prefix string) (*ConsulStore, error) {
	config := consul.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "autograder"
	}
	return &ConsulStore{consul: client, address: config.Address, prefix: prefix}, nil
}

func (c *ConsulStore) DSN() string {
	return "consul://" + c.address + "/" + c.prefix
}

func (c *ConsulStore) Record(ctx context.Context, key string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	ops := make([]*consul.KVTxnOp, 0, len(names))
	for _, name := range names {
		ops = append(ops, &consul.KVTxnOp{
			Verb:  consul.KVSet,
			Key:   c.prefix + "/" + key + "/" + name,
			Value: []byte(fields[name]),
		})
	}
	return batchOperations(ctx, c.consul.KV(), ops)
}

// batchOperations submits the operations using as many transactions as needed. The batches are
// not atomic with respect to each other.
func batchOperations(ctx context.Context, kv *consul.KV, ops []*consul.KVTxnOp) error {
	for i := 0; i < len(ops); {
		j := i + consulMaxTxnOps
		if j > len(ops) {
			j = len(ops)
		}
		ok, resp, _, err := kv.Txn(ops[i:j], (&consul.QueryOptions{}).WithContext(ctx))
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
			//nolint:stylecheck // this error message is capitalized on purpose
			return fmt.Errorf("Consul transaction failed: %s", strings.Join(errs, ", "))
		}
		i = j
	}
	return nil
}
