package query

import "fmt"

// Condition is one WHERE predicate. SQL returns the fragment and its
// parameters, named from paramIndex upwards.
type Condition interface {
	SQL(paramIndex int) (string, map[string]interface{})
}

type eqCondition struct {
	field string
	value interface{}
}

// Eq matches rows where field equals value.
func Eq(field string, value interface{}) Condition {
	return &eqCondition{field: field, value: value}
}

func (c *eqCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	name := fmt.Sprintf("p%d", paramIndex)
	return fmt.Sprintf("%s = @%s", c.field, name), map[string]interface{}{name: c.value}
}

type nullCondition struct {
	field string
	not   bool
}

// IsNull matches rows where field is NULL.
func IsNull(field string) Condition {
	return &nullCondition{field: field}
}

// IsNotNull matches rows where field is not NULL.
func IsNotNull(field string) Condition {
	return &nullCondition{field: field, not: true}
}

func (c *nullCondition) SQL(int) (string, map[string]interface{}) {
	if c.not {
		return fmt.Sprintf("%s IS NOT NULL", c.field), map[string]interface{}{}
	}
	return fmt.Sprintf("%s IS NULL", c.field), map[string]interface{}{}
}

type containsCondition struct {
	field string
	value interface{}
}

// Contains matches rows whose ARRAY column field holds value.
func Contains(field string, value interface{}) Condition {
	return &containsCondition{field: field, value: value}
}

func (c *containsCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	name := fmt.Sprintf("p%d", paramIndex)
	return fmt.Sprintf("@%s IN UNNEST(%s)", name, c.field), map[string]interface{}{name: c.value}
}
