package pagekit

import (
	"encoding/json"
	"time"

	"github.com/autom8ter/pagekit/errors"
	"github.com/samber/lo"
)

// Op is a filter operator applied to a property or timestamp value
type Op string

// OpEquals is an equality check
const OpEquals Op = "equals"

// OpDoesNotEqual is a non-equality check
const OpDoesNotEqual Op = "does_not_equal"

// OpContains checks if a text value contains subtext or a list value contains an element
const OpContains Op = "contains"

// OpDoesNotContain is the negation of OpContains
const OpDoesNotContain Op = "does_not_contain"

// OpStartsWith checks whether a text value has a prefix
const OpStartsWith Op = "starts_with"

// OpEndsWith checks whether a text value has a suffix
const OpEndsWith Op = "ends_with"

// OpGreaterThan checks whether a number value is greater than the operand
const OpGreaterThan Op = "greater_than"

// OpLessThan checks whether a number value is less than the operand
const OpLessThan Op = "less_than"

// OpGreaterThanOrEqualTo checks whether a number value is greater than or equal to the operand
const OpGreaterThanOrEqualTo Op = "greater_than_or_equal_to"

// OpLessThanOrEqualTo checks whether a number value is less than or equal to the operand
const OpLessThanOrEqualTo Op = "less_than_or_equal_to"

// OpBefore checks whether a date value is before the operand
const OpBefore Op = "before"

// OpAfter checks whether a date value is after the operand
const OpAfter Op = "after"

// OpOnOrBefore checks whether a date value is on or before the operand
const OpOnOrBefore Op = "on_or_before"

// OpOnOrAfter checks whether a date value is on or after the operand
const OpOnOrAfter Op = "on_or_after"

// OpPastWeek matches date values within the past week
const OpPastWeek Op = "past_week"

// OpPastMonth matches date values within the past month
const OpPastMonth Op = "past_month"

// OpPastYear matches date values within the past year
const OpPastYear Op = "past_year"

// OpNextWeek matches date values within the next week
const OpNextWeek Op = "next_week"

// OpNextMonth matches date values within the next month
const OpNextMonth Op = "next_month"

// OpNextYear matches date values within the next year
const OpNextYear Op = "next_year"

// OpIsEmpty matches values that are unset
const OpIsEmpty Op = "is_empty"

// OpIsNotEmpty matches values that are set
const OpIsNotEmpty Op = "is_not_empty"

// Condition is an atomic predicate (operator + operand) applied to a property
// or timestamp value. Conditions are built with the package level constructors
// (Equals, Contains, PastWeek, ...) and attached to a target with Where /
// WhereTimestamp / Schema.Filter.
type Condition struct {
	// Op is the filter operator
	Op Op `json:"op" validate:"required"`
	// Value is the operand compared against the target value - empty markers
	// (is_empty, past_week, ...) carry their fixed wire payload
	Value any `json:"value,omitempty"`
}

// Equals matches values equal to the operand
func Equals(value any) Condition { return Condition{Op: OpEquals, Value: value} }

// DoesNotEqual matches values not equal to the operand
func DoesNotEqual(value any) Condition { return Condition{Op: OpDoesNotEqual, Value: value} }

// Contains matches text containing the operand or lists containing the operand element
func Contains(value string) Condition { return Condition{Op: OpContains, Value: value} }

// DoesNotContain is the negation of Contains
func DoesNotContain(value string) Condition { return Condition{Op: OpDoesNotContain, Value: value} }

// StartsWith matches text with the operand prefix
func StartsWith(value string) Condition { return Condition{Op: OpStartsWith, Value: value} }

// EndsWith matches text with the operand suffix
func EndsWith(value string) Condition { return Condition{Op: OpEndsWith, Value: value} }

// GreaterThan matches numbers greater than the operand
func GreaterThan(value float64) Condition { return Condition{Op: OpGreaterThan, Value: value} }

// LessThan matches numbers less than the operand
func LessThan(value float64) Condition { return Condition{Op: OpLessThan, Value: value} }

// GreaterThanOrEqualTo matches numbers greater than or equal to the operand
func GreaterThanOrEqualTo(value float64) Condition {
	return Condition{Op: OpGreaterThanOrEqualTo, Value: value}
}

// LessThanOrEqualTo matches numbers less than or equal to the operand
func LessThanOrEqualTo(value float64) Condition {
	return Condition{Op: OpLessThanOrEqualTo, Value: value}
}

// Before matches dates before the operand
func Before(value time.Time) Condition { return Condition{Op: OpBefore, Value: value} }

// After matches dates after the operand
func After(value time.Time) Condition { return Condition{Op: OpAfter, Value: value} }

// OnOrBefore matches dates on or before the operand
func OnOrBefore(value time.Time) Condition { return Condition{Op: OpOnOrBefore, Value: value} }

// OnOrAfter matches dates on or after the operand
func OnOrAfter(value time.Time) Condition { return Condition{Op: OpOnOrAfter, Value: value} }

// PastWeek matches dates within the past week
func PastWeek() Condition { return Condition{Op: OpPastWeek, Value: map[string]any{}} }

// PastMonth matches dates within the past month
func PastMonth() Condition { return Condition{Op: OpPastMonth, Value: map[string]any{}} }

// PastYear matches dates within the past year
func PastYear() Condition { return Condition{Op: OpPastYear, Value: map[string]any{}} }

// NextWeek matches dates within the next week
func NextWeek() Condition { return Condition{Op: OpNextWeek, Value: map[string]any{}} }

// NextMonth matches dates within the next month
func NextMonth() Condition { return Condition{Op: OpNextMonth, Value: map[string]any{}} }

// NextYear matches dates within the next year
func NextYear() Condition { return Condition{Op: OpNextYear, Value: map[string]any{}} }

// IsEmpty matches unset values
func IsEmpty() Condition { return Condition{Op: OpIsEmpty, Value: true} }

// IsNotEmpty matches set values
func IsNotEmpty() Condition { return Condition{Op: OpIsNotEmpty, Value: true} }

// MarshalJSON returns the condition's wire shape: {"<op>": operand}
func (c Condition) MarshalJSON() ([]byte, error) {
	value := c.Value
	if t, ok := value.(time.Time); ok {
		value = t.Format(time.RFC3339)
	}
	return json.Marshal(map[string]any{string(c.Op): value})
}

var (
	textOps = []Op{
		OpEquals, OpDoesNotEqual, OpContains, OpDoesNotContain,
		OpStartsWith, OpEndsWith, OpIsEmpty, OpIsNotEmpty,
	}
	numberOps = []Op{
		OpEquals, OpDoesNotEqual, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqualTo, OpLessThanOrEqualTo, OpIsEmpty, OpIsNotEmpty,
	}
	checkboxOps = []Op{OpEquals, OpDoesNotEqual}
	selectOps   = []Op{OpEquals, OpDoesNotEqual, OpIsEmpty, OpIsNotEmpty}
	listOps     = []Op{OpContains, OpDoesNotContain, OpIsEmpty, OpIsNotEmpty}
	filesOps    = []Op{OpIsEmpty, OpIsNotEmpty}
	dateOps     = []Op{
		OpEquals, OpBefore, OpAfter, OpOnOrBefore, OpOnOrAfter,
		OpPastWeek, OpPastMonth, OpPastYear, OpNextWeek, OpNextMonth, OpNextYear,
		OpIsEmpty, OpIsNotEmpty,
	}
)

func opsForType(t PropertyType) []Op {
	switch t {
	case PropertyTypeTitle, PropertyTypeRichText, PropertyTypeURL, PropertyTypeEmail, PropertyTypePhoneNumber:
		return textOps
	case PropertyTypeNumber:
		return numberOps
	case PropertyTypeCheckbox:
		return checkboxOps
	case PropertyTypeSelect, PropertyTypeStatus:
		return selectOps
	case PropertyTypeMultiSelect, PropertyTypePeople, PropertyTypeRelation:
		return listOps
	case PropertyTypeFiles:
		return filesOps
	case PropertyTypeDate, PropertyTypeCreatedTime, PropertyTypeLastEditedTime:
		return dateOps
	}
	return nil
}

// validateFor checks that the condition's operator is a member of the operator
// set for the given declared type and that the operand matches the operator
func (c Condition) validateFor(target string, t PropertyType) error {
	ops := opsForType(t)
	if ops == nil {
		return errors.New(errors.SchemaType, "'%s': type '%s' does not support filters", target, t)
	}
	if !lo.Contains(ops, c.Op) {
		return errors.New(errors.SchemaType, "'%s': operator '%s' is invalid for type '%s'", target, c.Op, t)
	}
	return c.validateOperand(target, t)
}

func (c Condition) validateOperand(target string, t PropertyType) error {
	switch c.Op {
	case OpIsEmpty, OpIsNotEmpty,
		OpPastWeek, OpPastMonth, OpPastYear, OpNextWeek, OpNextMonth, OpNextYear:
		return nil
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqualTo, OpLessThanOrEqualTo:
		return requireNumberOperand(target, c.Op, c.Value)
	case OpBefore, OpAfter, OpOnOrBefore, OpOnOrAfter:
		return requireDateOperand(target, c.Op, c.Value)
	case OpContains, OpDoesNotContain, OpStartsWith, OpEndsWith:
		return requireStringOperand(target, c.Op, c.Value)
	case OpEquals, OpDoesNotEqual:
		switch t {
		case PropertyTypeNumber:
			return requireNumberOperand(target, c.Op, c.Value)
		case PropertyTypeCheckbox:
			if _, ok := c.Value.(bool); !ok {
				return errors.New(errors.SchemaType, "'%s': operator '%s' requires a bool operand, got %T", target, c.Op, c.Value)
			}
			return nil
		case PropertyTypeDate, PropertyTypeCreatedTime, PropertyTypeLastEditedTime:
			return requireDateOperand(target, c.Op, c.Value)
		default:
			return requireStringOperand(target, c.Op, c.Value)
		}
	}
	return nil
}

func requireStringOperand(target string, op Op, value any) error {
	if _, ok := value.(string); !ok {
		return errors.New(errors.SchemaType, "'%s': operator '%s' requires a string operand, got %T", target, op, value)
	}
	return nil
}

func requireNumberOperand(target string, op Op, value any) error {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	}
	return errors.New(errors.SchemaType, "'%s': operator '%s' requires a numeric operand, got %T", target, op, value)
}

func requireDateOperand(target string, op Op, value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return errors.New(errors.SchemaType, "'%s': operator '%s' requires an RFC3339 operand: %s", target, op, v)
		}
		return nil
	}
	return errors.New(errors.SchemaType, "'%s': operator '%s' requires a date operand, got %T", target, op, value)
}
