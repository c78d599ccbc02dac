package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ADFDocument is an Atlassian Document Format document, the rich text
// representation used by Jira Cloud API v3.
type ADFDocument struct {
	Version int       `json:"version"` // always 1
	Type    string    `json:"type"`    // always "doc"
	Content []ADFNode `json:"content"`
}

// ADFNode is a block or inline node in an ADF document.
type ADFNode struct {
	Type    string         `json:"type"`
	Content []ADFNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []ADFMark      `json:"marks,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// ADFMark is formatting applied to a text node.
type ADFMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node types the renderer understands. Unknown types are descended into
// so their text still comes through.
const (
	adfNodeDoc         = "doc"
	adfNodeParagraph   = "paragraph"
	adfNodeText        = "text"
	adfNodeHardBreak   = "hardBreak"
	adfNodeHeading     = "heading"
	adfNodeBulletList  = "bulletList"
	adfNodeOrderedList = "orderedList"
	adfNodeCodeBlock   = "codeBlock"
	adfNodeBlockquote  = "blockquote"
	adfNodeRule        = "rule"
	adfNodeMention     = "mention"
	adfNodeEmoji       = "emoji"
	adfNodeInlineCard  = "inlineCard"
)

const (
	adfMarkStrong = "strong"
	adfMarkEm     = "em"
	adfMarkStrike = "strike"
	adfMarkCode   = "code"
	adfMarkLink   = "link"
)

// Validate checks the document envelope.
func (d *ADFDocument) Validate() error {
	if d.Version != 1 {
		return ErrADFVersionOnly
	}
	if d.Type != adfNodeDoc {
		return ErrADFTypeInvalid
	}
	return nil
}

// ADFConverter renders ADF documents as Markdown.
type ADFConverter struct{}

// NewADFConverter creates a new converter.
func NewADFConverter() *ADFConverter {
	return &ADFConverter{}
}

// FromADFAny renders a description field as Markdown. API v2 returns
// descriptions as plain strings and v3 as ADF, so the field decodes as
// `any`; both shapes are handled here.
func (c *ADFConverter) FromADFAny(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal adf: %w", err)
	}
	var doc ADFDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("unmarshal adf: %w", err)
	}
	return c.FromADF(&doc)
}

// FromADF renders an ADF document as Markdown.
func (c *ADFConverter) FromADF(doc *ADFDocument) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	for i := range doc.Content {
		c.writeBlock(&b, &doc.Content[i])
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *ADFConverter) writeBlock(b *strings.Builder, node *ADFNode) {
	switch node.Type {
	case adfNodeParagraph:
		c.writeInline(b, node.Content)
		b.WriteString("\n\n")

	case adfNodeHeading:
		level := 1
		if l, ok := node.Attrs["level"].(float64); ok {
			level = int(l)
		}
		b.WriteString(strings.Repeat("#", level) + " ")
		c.writeInline(b, node.Content)
		b.WriteString("\n\n")

	case adfNodeCodeBlock:
		lang, _ := node.Attrs["language"].(string)
		b.WriteString("```" + lang + "\n")
		c.writeInline(b, node.Content)
		b.WriteString("\n```\n\n")

	case adfNodeBlockquote:
		for i := range node.Content {
			b.WriteString("> ")
			c.writeBlock(b, &node.Content[i])
		}

	case adfNodeBulletList:
		for _, item := range node.Content {
			b.WriteString("- ")
			for _, inner := range item.Content {
				c.writeInline(b, inner.Content)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

	case adfNodeOrderedList:
		for i, item := range node.Content {
			fmt.Fprintf(b, "%d. ", i+1)
			for _, inner := range item.Content {
				c.writeInline(b, inner.Content)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

	case adfNodeRule:
		b.WriteString("---\n\n")

	case adfNodeText:
		c.writeText(b, node)

	default:
		for i := range node.Content {
			c.writeBlock(b, &node.Content[i])
		}
	}
}

func (c *ADFConverter) writeInline(b *strings.Builder, nodes []ADFNode) {
	for i := range nodes {
		node := &nodes[i]
		switch node.Type {
		case adfNodeText:
			c.writeText(b, node)
		case adfNodeHardBreak:
			b.WriteString("\n")
		case adfNodeMention:
			if id, ok := node.Attrs["id"].(string); ok {
				b.WriteString("@" + id)
			}
		case adfNodeEmoji:
			if short, ok := node.Attrs["shortName"].(string); ok {
				b.WriteString(short)
			}
		case adfNodeInlineCard:
			if url, ok := node.Attrs["url"].(string); ok {
				b.WriteString(url)
			}
		default:
			c.writeInline(b, node.Content)
		}
	}
}

func (c *ADFConverter) writeText(b *strings.Builder, node *ADFNode) {
	prefix, suffix := "", ""
	for _, mark := range node.Marks {
		switch mark.Type {
		case adfMarkStrong:
			prefix, suffix = "**"+prefix, suffix+"**"
		case adfMarkEm:
			prefix, suffix = "*"+prefix, suffix+"*"
		case adfMarkStrike:
			prefix, suffix = "~~"+prefix, suffix+"~~"
		case adfMarkCode:
			prefix, suffix = "`"+prefix, suffix+"`"
		case adfMarkLink:
			if href, ok := mark.Attrs["href"].(string); ok {
				prefix, suffix = "["+prefix, suffix+"]("+href+")"
			}
		}
	}
	b.WriteString(prefix + node.Text + suffix)
}
