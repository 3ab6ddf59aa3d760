package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutomationActions_GraphTakesPrecedence(t *testing.T) {
	automation := &Automation{
		Config: AutomationConfig{
			Nodes: []GraphNode{
				{Type: NodeTypeCondition, Data: NodeData{Field: "deal.category"}},
				{Type: NodeTypeAction, Data: NodeData{ActionType: ActionSendMessage}},
				{Type: NodeTypeAction, Data: NodeData{ActionType: ActionCreateTask}},
			},
		},
		LegacyActions: []ActionItem{
			{Type: ActionSendChatMessage, SortKey: 1},
		},
	}

	actions := automation.Actions()

	assert.Len(t, actions, 2)
	assert.Equal(t, ActionSendMessage, actions[0].Type)
	assert.Equal(t, ActionCreateTask, actions[1].Type)
}

func TestAutomationActions_LegacyRowsSortedBySortKey(t *testing.T) {
	automation := &Automation{
		LegacyActions: []ActionItem{
			{Type: ActionSendChatMessage, SortKey: 3},
			{Type: ActionCreateTask, SortKey: 1},
			{Type: ActionSendMessage, SortKey: 2},
		},
	}

	actions := automation.Actions()

	assert.Len(t, actions, 3)
	assert.Equal(t, ActionCreateTask, actions[0].Type)
	assert.Equal(t, ActionSendMessage, actions[1].Type)
	assert.Equal(t, ActionSendChatMessage, actions[2].Type)
}

func TestAutomationActions_Empty(t *testing.T) {
	automation := &Automation{}

	assert.Empty(t, automation.Actions())
}

func TestAutomationConditions_OnlyConditionNodes(t *testing.T) {
	automation := &Automation{
		Config: AutomationConfig{
			Nodes: []GraphNode{
				{Type: NodeTypeAction, Data: NodeData{ActionType: ActionCreateTask}},
				{Type: NodeTypeCondition, Data: NodeData{
					Field:          "deal.service",
					SelectedValues: []string{"Physio"},
					MatchMode:      "includes",
				}},
			},
		},
	}

	conditions := automation.Conditions()

	assert.Len(t, conditions, 1)
	assert.Equal(t, "deal.service", conditions[0].Field)
	assert.Equal(t, []string{"Physio"}, conditions[0].SelectedValues)
}

func TestStageEventIsCreation(t *testing.T) {
	from := "stage-1"
	empty := ""

	tests := []struct {
		name     string
		event    StageEvent
		creation bool
	}{
		{name: "nil from stage", event: StageEvent{ToStageID: "stage-2"}, creation: true},
		{name: "empty from stage", event: StageEvent{FromStageID: &empty, ToStageID: "stage-2"}, creation: true},
		{name: "stage change", event: StageEvent{FromStageID: &from, ToStageID: "stage-2"}, creation: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.creation, tt.event.IsCreation())
		})
	}
}

func TestActionTypeIsValid(t *testing.T) {
	assert.True(t, ActionCreateTask.IsValid())
	assert.True(t, ActionSendMessage.IsValid())
	assert.True(t, ActionSendChatMessage.IsValid())
	assert.False(t, ActionType("delete_everything").IsValid())
}
