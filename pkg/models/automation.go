package models

import (
	"sort"
	"time"
)

// TriggerDealStageChanged is the only trigger type the engine reacts to.
const TriggerDealStageChanged = "deal_stage_changed"

// Automation is a persisted rule: a trigger condition plus an ordered list of
// actions. Automations are authored by an external tool and are read-only to
// the engine.
type Automation struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"        validate:"required"`
	TriggerType string           `json:"trigger_type"`
	Active      bool             `json:"active"`
	Config      AutomationConfig `json:"config"`

	// LegacyActions holds action rows from before the graph editor existed,
	// ordered by their explicit sort key. Ignored when Config.Nodes carries
	// action nodes.
	LegacyActions []ActionItem `json:"legacy_actions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AutomationConfig is the automation's trigger and node configuration. Two
// shapes coexist in production data: the legacy flat fields and the
// graph-shaped Nodes list written by the current editor.
type AutomationConfig struct {
	FromStageID       string `json:"from_stage_id,omitempty"`
	ToStageID         string `json:"to_stage_id,omitempty"`
	Category          string `json:"category,omitempty"`
	TriggerOnCreation bool   `json:"trigger_on_creation,omitempty"`

	Nodes []GraphNode `json:"nodes,omitempty"`
}

// GraphNode is one node of a graph-shaped automation config.
type GraphNode struct {
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

// NodeType discriminates graph nodes.
type NodeType string

const (
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
)

// NodeData carries the payload of a graph node. Condition and action nodes
// share the struct; the relevant fields depend on the node type.
type NodeData struct {
	// Condition node fields.
	Field          string   `json:"field,omitempty"`
	Operator       string   `json:"operator,omitempty"`
	Value          string   `json:"value,omitempty"`
	SelectedValues []string `json:"selected_values,omitempty"`
	MatchMode      string   `json:"match_mode,omitempty"`

	// Action node fields.
	ActionType ActionType     `json:"action_type,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
}

// ConditionNode is a declarative predicate attached to an automation. All
// condition nodes of an automation are combined with AND semantics.
type ConditionNode struct {
	Field          string   `json:"field"`
	Operator       string   `json:"operator,omitempty"`
	Value          string   `json:"value,omitempty"`
	SelectedValues []string `json:"selected_values,omitempty"`
	MatchMode      string   `json:"match_mode,omitempty"`
}

// ActionItem is one resolved action of an automation, in execution order.
type ActionItem struct {
	Type    ActionType     `json:"type"`
	Config  map[string]any `json:"config"`
	SortKey int            `json:"sort_key,omitempty"`
}

// Conditions returns the automation's condition nodes in declaration order.
func (a *Automation) Conditions() []ConditionNode {
	var nodes []ConditionNode

	for _, n := range a.Config.Nodes {
		if n.Type != NodeTypeCondition {
			continue
		}

		nodes = append(nodes, ConditionNode{
			Field:          n.Data.Field,
			Operator:       n.Data.Operator,
			Value:          n.Data.Value,
			SelectedValues: n.Data.SelectedValues,
			MatchMode:      n.Data.MatchMode,
		})
	}

	return nodes
}

// Actions resolves the automation's canonical ordered action list. Graph-shaped
// action nodes take precedence; the legacy rows are used only when the graph
// carries no action nodes.
func (a *Automation) Actions() []ActionItem {
	var items []ActionItem

	for _, n := range a.Config.Nodes {
		if n.Type != NodeTypeAction {
			continue
		}

		items = append(items, ActionItem{
			Type:   n.Data.ActionType,
			Config: n.Data.Config,
		})
	}

	if len(items) > 0 {
		return items
	}

	legacy := make([]ActionItem, len(a.LegacyActions))
	copy(legacy, a.LegacyActions)

	sort.SliceStable(legacy, func(i, j int) bool {
		return legacy[i].SortKey < legacy[j].SortKey
	})

	return legacy
}
