package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"jurisync/internal/domain/entity"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from entity.ProcessStatus
		to   entity.ProcessStatus
		want bool
	}{
		{"pending to validating", entity.StatusPending, entity.StatusValidating, true},
		{"pending to registered skips validation", entity.StatusPending, entity.StatusRegistered, false},
		{"validating to registered", entity.StatusValidating, entity.StatusRegistered, true},
		{"registered back to validating", entity.StatusRegistered, entity.StatusValidating, false},
		{"error recovers to validating", entity.StatusError, entity.StatusValidating, true},
		{"anything to archived", entity.StatusRegistered, entity.StatusArchived, true},
		{"archived is terminal", entity.StatusArchived, entity.StatusValidating, false},
		{"same status is a no-op", entity.StatusRegistered, entity.StatusRegistered, true},
		{"unknown source", entity.ProcessStatus(99), entity.StatusValidating, false},
		{"unknown target", entity.StatusValidating, entity.ProcessStatus(99), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestApplyPartnerStatus(t *testing.T) {
	t.Run("valid transition clears description", func(t *testing.T) {
		p := &entity.Process{
			StatusCode:        entity.StatusError,
			StatusDescription: "old failure",
			ErrorCategory:     string(RejectionGeneric),
		}

		ok := ApplyPartnerStatus(p, entity.StatusValidating, "ignored")

		assert.True(t, ok)
		assert.Equal(t, entity.StatusValidating, p.StatusCode)
		assert.Empty(t, p.StatusDescription)
		assert.Empty(t, p.ErrorCategory)
	})

	t.Run("error status keeps the partner message and classifies it", func(t *testing.T) {
		p := &entity.Process{StatusCode: entity.StatusValidating}

		ok := ApplyPartnerStatus(p, entity.StatusError, "Instância inválida")

		assert.True(t, ok)
		assert.Equal(t, entity.StatusError, p.StatusCode)
		assert.Equal(t, "Instância inválida", p.StatusDescription)
		assert.Equal(t, string(RejectionInvalidInstance), p.ErrorCategory)
	})

	t.Run("archived rejects everything", func(t *testing.T) {
		p := &entity.Process{StatusCode: entity.StatusArchived}

		assert.False(t, ApplyPartnerStatus(p, entity.StatusValidating, ""))
		assert.False(t, ApplyPartnerStatus(p, entity.ProcessStatus(42), "novel"))
		assert.Equal(t, entity.StatusArchived, p.StatusCode)
	})

	t.Run("unknown code is preserved verbatim", func(t *testing.T) {
		p := &entity.Process{StatusCode: entity.StatusRegistered}

		ok := ApplyPartnerStatus(p, entity.ProcessStatus(42), "código novo")

		assert.True(t, ok)
		assert.Equal(t, entity.ProcessStatus(42), p.StatusCode)
		assert.Equal(t, "código novo", p.StatusDescription)
		assert.Equal(t, "OTHER", p.StatusCode.Label())
	})

	t.Run("invalid transition writes nothing", func(t *testing.T) {
		p := &entity.Process{StatusCode: entity.StatusRegistered, StatusDescription: ""}

		ok := ApplyPartnerStatus(p, entity.StatusValidating, "")

		assert.False(t, ok)
		assert.Equal(t, entity.StatusRegistered, p.StatusCode)
	})
}

func TestResetForNumberChange(t *testing.T) {
	p := &entity.Process{
		Number:            "0000001-11.2020.1.01.0001",
		StatusCode:        entity.StatusError,
		StatusDescription: "rejected",
		ErrorCategory:     string(RejectionGeneric),
	}

	ResetForNumberChange(p, "0000002-22.2021.2.02.0002")

	assert.Equal(t, "0000002-22.2021.2.02.0002", p.Number)
	assert.Equal(t, entity.StatusValidating, p.StatusCode)
	assert.Empty(t, p.StatusDescription)
	assert.Empty(t, p.ErrorCategory)
}

func TestClassifyRejection(t *testing.T) {
	cases := []struct {
		message string
		want    RejectionCategory
	}{
		{"Instância inválida para este tribunal", RejectionInvalidInstance},
		{"INSTANCIA INVALIDA", RejectionInvalidInstance},
		{"Processo já cadastrado", RejectionAlreadyRegistered},
		{"processo duplicado", RejectionAlreadyRegistered},
		{"erro interno do parceiro", RejectionGeneric},
		{"", RejectionGeneric},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRejection(tc.message), "message: %q", tc.message)
	}
}
