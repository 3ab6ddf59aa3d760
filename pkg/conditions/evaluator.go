// Package conditions evaluates an automation's declarative condition nodes
// against loaded entity data.
package conditions

import (
	"strings"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// Supported condition fields.
const (
	FieldDealService  = "deal.service"
	FieldDealCategory = "deal.category"
	FieldPatientEmail = "patient.email"
)

// Comparison operators for field conditions.
const (
	OperatorEquals     = "equals"
	OperatorNotEquals  = "not_equals"
	OperatorContains   = "contains"
	OperatorIsEmpty    = "is_empty"
	OperatorIsNotEmpty = "is_not_empty"
)

// Match modes for the service membership condition.
const (
	MatchModeIncludes = "includes"
	MatchModeExcludes = "excludes"
)

// Input is the entity data conditions are evaluated against. ServiceName is
// the deal's service resolved by id→name lookup, or "" when the deal has no
// service.
type Input struct {
	Deal        models.Deal
	Patient     models.Patient
	ServiceName string
}

// Evaluate applies every condition node with AND semantics, short-circuiting
// to false on the first node that fails. An empty node list always passes.
func Evaluate(nodes []models.ConditionNode, input Input) bool {
	for _, node := range nodes {
		if !evaluateNode(node, input) {
			return false
		}
	}

	return true
}

func evaluateNode(node models.ConditionNode, input Input) bool {
	switch node.Field {
	case FieldDealService:
		return evaluateServiceMembership(node, input.ServiceName)
	case FieldDealCategory:
		return compare(node.Operator, input.Deal.Category, node.Value)
	case FieldPatientEmail:
		return compare(node.Operator, input.Patient.Email, node.Value)
	default:
		// Unknown fields come from newer authoring tools; treat them as
		// passing rather than vetoing the whole automation.
		return true
	}
}

func evaluateServiceMembership(node models.ConditionNode, serviceName string) bool {
	if len(node.SelectedValues) == 0 {
		return true
	}

	if serviceName == "" {
		// A deal without a service can never be in the selected set.
		return node.MatchMode == MatchModeExcludes
	}

	member := false

	for _, v := range node.SelectedValues {
		if strings.EqualFold(v, serviceName) {
			member = true

			break
		}
	}

	if node.MatchMode == MatchModeExcludes {
		return !member
	}

	return member
}

// compare applies a field comparison operator case-insensitively. Absent
// field values are treated as empty strings. An operator the evaluator does
// not understand fails the condition rather than letting the automation fire.
func compare(operator, actual, expected string) bool {
	actual = strings.ToLower(strings.TrimSpace(actual))
	expected = strings.ToLower(strings.TrimSpace(expected))

	switch operator {
	case OperatorEquals:
		return actual == expected
	case OperatorNotEquals:
		return actual != expected
	case OperatorContains:
		return strings.Contains(actual, expected)
	case OperatorIsEmpty:
		return actual == ""
	case OperatorIsNotEmpty:
		return actual != ""
	default:
		return false
	}
}
