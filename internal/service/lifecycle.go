package service

import (
	"strings"

	"jurisync/internal/domain/entity"
)

// RejectionCategory buckets the partner's free-text rejection messages so the
// dashboard can group errors without string matching of its own.
type RejectionCategory string

const (
	RejectionInvalidInstance   RejectionCategory = "INVALID_INSTANCE"
	RejectionAlreadyRegistered RejectionCategory = "ALREADY_REGISTERED"
	RejectionGeneric           RejectionCategory = "GENERIC"
)

// lifecycleTransitions is the only path a known status may advance through.
// The operator-triggered fallback to VALIDATING on a number edit is handled
// separately in ResetForNumberChange, since it regresses from any state.
var lifecycleTransitions = map[entity.ProcessStatus][]entity.ProcessStatus{
	entity.StatusPending:    {entity.StatusValidating, entity.StatusError, entity.StatusArchived},
	entity.StatusValidating: {entity.StatusRegistered, entity.StatusError, entity.StatusArchived},
	entity.StatusRegistered: {entity.StatusError, entity.StatusArchived},
	entity.StatusError:      {entity.StatusValidating, entity.StatusArchived},
	entity.StatusArchived:   {},
}

// CanTransition reports whether a process may move from one known status to
// another. Unknown partner codes are display-only and never transitioned.
func CanTransition(from, to entity.ProcessStatus) bool {
	if from == to {
		return true
	}
	if !from.Known() || !to.Known() {
		return false
	}
	for _, next := range lifecycleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyPartnerStatus folds a partner-reported status into the process and
// reports whether anything may be written. Archived processes accept no
// further sync writes until reactivated out of band.
func ApplyPartnerStatus(p *entity.Process, code entity.ProcessStatus, message string) bool {
	if p.StatusCode == entity.StatusArchived {
		return false
	}

	if !code.Known() {
		// Preserve verbatim for display, never act on it.
		p.StatusCode = code
		p.StatusDescription = message
		p.ErrorCategory = ""
		return true
	}

	if !CanTransition(p.StatusCode, code) {
		return false
	}

	p.StatusCode = code
	if code == entity.StatusError {
		p.StatusDescription = message
		p.ErrorCategory = string(ClassifyRejection(message))
	} else {
		p.StatusDescription = ""
		p.ErrorCategory = ""
	}
	return true
}

// ResetForNumberChange forces a process back to VALIDATING after an operator
// edits its number. The partner must re-validate the new identifier, so this
// is the one regression the lifecycle allows from any state.
func ResetForNumberChange(p *entity.Process, newNumber string) {
	p.Number = newNumber
	p.StatusCode = entity.StatusValidating
	p.StatusDescription = ""
	p.ErrorCategory = ""
}

// ClassifyRejection maps the partner's rejection message into a category.
// Messages arrive in Portuguese, with and without accents.
func ClassifyRejection(message string) RejectionCategory {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "instância inválida"),
		strings.Contains(m, "instancia invalida"):
		return RejectionInvalidInstance
	case strings.Contains(m, "já cadastrado"),
		strings.Contains(m, "ja cadastrado"),
		strings.Contains(m, "duplicado"):
		return RejectionAlreadyRegistered
	default:
		return RejectionGeneric
	}
}
