package section

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nholik/flash-sentinel/internal/result"
)

// Section identifiers understood by the monitoring host.
const (
	ResultsID   = "purestorage_flasharray"
	InventoryID = "purestorage_flasharray_inventory"

	BladeResultsID   = "purestorage_flashblade"
	BladeInventoryID = "purestorage_flashblade_inventory"
)

// IsResults reports whether id names a results section of either product.
func IsResults(id string) bool {
	return id == ResultsID || id == BladeResultsID
}

// IsInventory reports whether id names an inventory section of either product.
func IsInventory(id string) bool {
	return id == InventoryID || id == BladeInventoryID
}

// Results maps a domain name such as "drives" to its result set.
type Results map[string]*result.ResultSet

// Inventory maps a domain name such as "hardware" to its inventory set.
type Inventory map[string]*result.InventorySet

// Block is one section as it appears in agent output.
type Block struct {
	ID      string
	Payload string
}

func (b Block) String() string {
	return "<<<" + b.ID + ">>>\n" + b.Payload + "\n"
}

// Encode renders v as base64 encoded JSON.
func Encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode section: %w", err)
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return base64.StdEncoding.EncodeToString(raw), nil
}

// NewBlock encodes v into a block with the given id.
func NewBlock(id string, v any) (Block, error) {
	payload, err := Encode(v)
	if err != nil {
		return Block{}, err
	}
	return Block{ID: id, Payload: payload}, nil
}

// Decode reverses Encode into v. Unknown fields are rejected.
func Decode(payload string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return fmt.Errorf("decode section payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode section json: %w", err)
	}
	return nil
}

// DecodeResults decodes a results payload and validates every service.
func DecodeResults(payload string) (Results, error) {
	var out Results
	if err := Decode(payload, &out); err != nil {
		return nil, err
	}
	for domain, set := range out {
		if set == nil {
			continue
		}
		for name, r := range set.Services {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("domain %q service %q: %w", domain, name, err)
			}
		}
	}
	return out, nil
}

// DecodeInventory decodes an inventory payload.
func DecodeInventory(payload string) (Inventory, error) {
	var out Inventory
	if err := Decode(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Write renders the blocks in order and hands them to w in a single call,
// so a failing writer never receives a partial output.
func Write(w io.Writer, blocks ...Block) error {
	var buf bytes.Buffer
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		buf.WriteString(b.String())
		ids = append(ids, b.ID)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write sections %s: %w", strings.Join(ids, ","), err)
	}
	return nil
}

// Parse splits agent output into blocks. Each header line must be followed by
// exactly one payload line.
func Parse(r io.Reader) ([]Block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)

	var blocks []Block
	var current *Block
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if id, ok := headerID(line); ok {
			if current != nil {
				return nil, fmt.Errorf("section %s has no payload", current.ID)
			}
			current = &Block{ID: id}
			continue
		}
		if line == "" {
			continue
		}
		if current == nil {
			return nil, errors.New("payload line outside of a section")
		}
		current.Payload = line
		blocks = append(blocks, *current)
		current = nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sections: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("section %s has no payload", current.ID)
	}
	return blocks, nil
}

func headerID(line string) (string, bool) {
	if !strings.HasPrefix(line, "<<<") || !strings.HasSuffix(line, ">>>") || len(line) <= 6 {
		return "", false
	}
	return line[3 : len(line)-3], true
}
