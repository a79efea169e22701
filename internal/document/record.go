package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RecordVersion is the version written on every serialized record.
const RecordVersion = 1

var (
	ErrUnknownKind        = errors.New("document: unknown node kind")
	ErrUnsupportedVersion = errors.New("document: unsupported record version")
	ErrMalformedRecord    = errors.New("document: malformed record")
)

// RecordError locates a deserialization failure inside a record tree.
type RecordError struct {
	Path string
	Kind string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%v at %s (kind %q)", e.Err, e.Path, e.Kind)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Record is the plain-data form of a node: {kind, version, ...attrs, children}.
type Record struct {
	Kind    string `json:"kind" yaml:"kind"`
	Version int    `json:"version" yaml:"version"`

	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Format      Format `json:"format,omitempty" yaml:"format,omitempty"`
	FormatType  string `json:"formatType,omitempty" yaml:"formatType,omitempty"`
	Indent      int    `json:"indent,omitempty" yaml:"indent,omitempty"`
	Level       int    `json:"level,omitempty" yaml:"level,omitempty"`
	Ordered     bool   `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Start       int    `json:"start,omitempty" yaml:"start,omitempty"`
	ListID      string `json:"listId,omitempty" yaml:"listId,omitempty"`
	ItemID      string `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	UserID      *int64 `json:"userId,omitempty" yaml:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	APIName     string `json:"apiName,omitempty" yaml:"apiName,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle    string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	ID          *int64 `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`

	Children []Record `json:"children,omitempty" yaml:"children,omitempty"`
}

// Serialize converts the subtree rooted at n to records. Keys are not serialized.
func Serialize(n *Node) Record {
	r := Record{Kind: n.kind.String(), Version: RecordVersion}
	switch a := n.attrs.(type) {
	case BlockAttrs:
		r.FormatType, r.Indent = a.FormatType, a.Indent
	case HeadingAttrs:
		r.FormatType, r.Indent, r.Level = a.FormatType, a.Indent, a.Level
	case ListAttrs:
		r.Ordered, r.Start = a.Ordered, a.Start
	case ChecklistListAttrs:
		r.ListID = a.ListID
	case ChecklistItemAttrs:
		r.FormatType, r.Indent = a.FormatType, a.Indent
		r.ListID, r.ItemID = a.ListID, a.ItemID
	case TextAttrs:
		r.Text, r.Format = a.Text, a.Format
	case LinkAttrs:
		r.URL = a.URL
	case MentionAttrs:
		r.UserID, r.DisplayName = a.UserID, a.DisplayName
	case VariableAttrs:
		r.APIName, r.Title, r.Subtitle = a.APIName, a.Title, a.Subtitle
	case AttachmentAttrs:
		r.ID, r.URL, r.Name = a.ID, a.URL, a.Name
	}
	for _, c := range n.children {
		r.Children = append(r.Children, Serialize(c))
	}
	return r
}

// SerializeAll serializes a node sequence.
func SerializeAll(nodes []*Node) []Record {
	out := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Serialize(n))
	}
	return out
}

// Deserialize rebuilds a node tree from r, minting fresh keys from m.
// Version 0 records predate versioning and are read as version 1.
func Deserialize(r Record, m KeyMinter) (*Node, error) {
	return deserialize(r, m, "$")
}

// DeserializeAll rebuilds a node sequence.
func DeserializeAll(rs []Record, m KeyMinter) ([]*Node, error) {
	out := make([]*Node, 0, len(rs))
	for i, r := range rs {
		n, err := deserialize(r, m, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func deserialize(r Record, m KeyMinter, path string) (*Node, error) {
	if r.Version > RecordVersion || r.Version < 0 {
		return nil, &RecordError{Path: path, Kind: r.Kind, Err: ErrUnsupportedVersion}
	}
	k, ok := ParseKind(r.Kind)
	if !ok {
		return nil, &RecordError{Path: path, Kind: r.Kind, Err: ErrUnknownKind}
	}
	var a Attrs
	switch k {
	case KindParagraph, KindQuote:
		a = BlockAttrs{FormatType: r.FormatType, Indent: r.Indent}
	case KindHeading:
		level := r.Level
		if level < 1 || level > 6 {
			level = 1
		}
		a = HeadingAttrs{BlockAttrs: BlockAttrs{FormatType: r.FormatType, Indent: r.Indent}, Level: level}
	case KindList:
		a = ListAttrs{Ordered: r.Ordered, Start: r.Start}
	case KindChecklistList:
		a = ChecklistListAttrs{ListID: r.ListID}
	case KindChecklistItem:
		a = ChecklistItemAttrs{BlockAttrs: BlockAttrs{FormatType: r.FormatType, Indent: r.Indent}, ListID: r.ListID, ItemID: r.ItemID}
	case KindText:
		a = TextAttrs{Text: r.Text, Format: r.Format}
	case KindLink:
		a = LinkAttrs{URL: r.URL}
	case KindMention:
		a = MentionAttrs{UserID: r.UserID, DisplayName: r.DisplayName}
	case KindVariable:
		a = VariableAttrs{APIName: r.APIName, Title: r.Title, Subtitle: r.Subtitle}
	case KindImage, KindVideo, KindFile:
		a = AttachmentAttrs{ID: r.ID, URL: r.URL, Name: r.Name}
	}
	n := New(m, k, a)
	if len(r.Children) > 0 && !k.IsContainer() {
		return nil, &RecordError{Path: path, Kind: r.Kind, Err: ErrMalformedRecord}
	}
	for i, cr := range r.Children {
		c, err := deserialize(cr, m, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		n.Append(c)
	}
	return n, nil
}

// UnmarshalRecords accepts either one JSON record or an array of them.
func UnmarshalRecords(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("[")) {
		var rs []Record
		if err := json.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		return rs, nil
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return []Record{r}, nil
}
