package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorKeyPrefersRegistryID(t *testing.T) {
	op := Operator{ID: "tesco", Name: "Tesco Stores Ltd"}
	assert.Equal(t, "tesco", OperatorKey(op))
}

func TestOperatorKeySlugIsStable(t *testing.T) {
	a := OperatorKey(Operator{Name: "Tesco Stores Ltd"})
	b := OperatorKey(Operator{Name: "TESCO STORES LTD!!"})

	assert.Equal(t, "tesco-stores-ltd", a)
	assert.Equal(t, a, b)
}

func TestOperatorKeyCollapsesRuns(t *testing.T) {
	assert.Equal(t, "j-sainsbury-plc", OperatorKey(Operator{Name: "J. Sainsbury (plc)"}))
	assert.Equal(t, "co-op", OperatorKey(Operator{Name: "  Co-op  "}))
}

func TestOperatorKeyUnknown(t *testing.T) {
	assert.Equal(t, UnknownOperatorKey, OperatorKey(Operator{}))
	assert.Equal(t, UnknownOperatorKey, OperatorKey(Operator{Name: "!!!"}))
}
