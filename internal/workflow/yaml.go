// Package workflow keeps the repository's publishing workflow file in
// sync with the configured schedule.
package workflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ReplaceScheduleBlock rewrites the on.schedule block of a workflow
// document to the given cron expressions, preserving every other key,
// comments included. With no expressions the schedule block is removed
// so the workflow only runs on manual dispatch.
func ReplaceScheduleBlock(doc []byte, exprs []string) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("workflow: parse: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("workflow: empty document")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow: document is not a mapping")
	}

	on := findMapValue(mapping, "on")
	if on == nil {
		if len(exprs) == 0 {
			return encode(&root)
		}
		on = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "on"},
			on,
		)
	}
	if on.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow: on block is not a mapping")
	}

	if len(exprs) == 0 {
		removeMapKey(on, "schedule")
		return encode(&root)
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, expr := range exprs {
		seq.Content = append(seq.Content, &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: "cron"},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: expr, Style: yaml.SingleQuotedStyle},
			},
		})
	}

	if existing := findMapValue(on, "schedule"); existing != nil {
		*existing = *seq
	} else {
		on.Content = append(on.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "schedule"},
			seq,
		)
	}
	return encode(&root)
}

// ScheduleExpressions extracts the cron expressions currently present
// in the on.schedule block, in document order.
func ScheduleExpressions(doc []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("workflow: parse: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}
	on := findMapValue(root.Content[0], "on")
	if on == nil || on.Kind != yaml.MappingNode {
		return nil, nil
	}
	sched := findMapValue(on, "schedule")
	if sched == nil || sched.Kind != yaml.SequenceNode {
		return nil, nil
	}
	var exprs []string
	for _, entry := range sched.Content {
		if cron := findMapValue(entry, "cron"); cron != nil {
			exprs = append(exprs, cron.Value)
		}
	}
	return exprs, nil
}

func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func removeMapKey(mapping *yaml.Node, key string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return
		}
	}
}

func encode(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("workflow: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("workflow: encode: %w", err)
	}
	return buf.Bytes(), nil
}
