package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gema-progress-api/internal/apperror"
	"github.com/noah-isme/gema-progress-api/internal/models"
)

const maxCallToActionLength = 20

// TargetContext carries the lookups the configuration pass needs besides the target itself.
type TargetContext struct {
	Group         *models.TargetGroup
	CriteriaFound int64
	KeyTaken      bool
}

// ValidateTarget runs every target configuration rule in one pass and returns
// all violations. It runs on create and update only; status resolution trusts
// stored targets.
func ValidateTarget(target models.Target, criterionIDs []uint, lookups TargetContext) apperror.ConfigurationErrors {
	var errs apperror.ConfigurationErrors
	add := func(field, message string) {
		errs = append(errs, apperror.ConfigurationError{Field: field, Message: message})
	}

	if strings.TrimSpace(target.Title) == "" {
		add("title", "is required")
	}

	switch target.Role {
	case models.TargetRoleIndividual, models.TargetRoleTeam:
	default:
		add("role", fmt.Sprintf("must be one of %s, %s", models.TargetRoleIndividual, models.TargetRoleTeam))
	}

	gradable, reviewless := false, false
	switch target.Submittability {
	case models.SubmittabilityResubmittable, models.SubmittabilitySubmittableOnce:
		gradable = true
	case models.SubmittabilityNotSubmittable, models.SubmittabilityAutoVerify:
		reviewless = true
	default:
		add("submittability", "is not a known submittability")
	}

	if target.Key != nil {
		if !containsString(models.TargetKeys(), *target.Key) {
			add("key", "is not a known target key")
		} else if lookups.KeyTaken {
			add("key", "is already used by another target")
		}
	}

	if len([]rune(target.CallToAction)) > maxCallToActionLength {
		add("call_to_action", fmt.Sprintf("must be at most %d characters", maxCallToActionLength))
	}

	hasDays := target.DaysToComplete != nil
	if hasDays == target.IsSession() {
		add("base", "exactly one of days_to_complete or session_at must be set")
	}
	if hasDays && *target.DaysToComplete < 1 {
		add("days_to_complete", "must be at least 1")
	}

	hasSessionBy := target.SessionBy != nil && strings.TrimSpace(*target.SessionBy) != ""
	if target.FacultyID != nil && hasSessionBy {
		add("base", "faculty and session_by cannot both be set")
	}
	if !target.IsSession() && hasSessionBy {
		add("session_by", "should only be set on sessions")
	}
	if !target.IsSession() && target.FacultyID == nil && gradable {
		add("faculty_id", "is required for a target that is reviewed")
	}

	if target.TargetGroupID != nil {
		switch {
		case lookups.Group == nil:
			add("target_group_id", "does not exist")
		case lookups.Group.Level.CourseID != target.CourseID:
			add("target_group_id", "belongs to a level of another course")
		}
	}

	if len(criterionIDs) != len(uniqueIDs(criterionIDs)) {
		add("criterion_ids", "must not repeat a criterion")
	}
	if int64(len(uniqueIDs(criterionIDs))) != lookups.CriteriaFound {
		add("criterion_ids", "must reference criteria of the target's course")
	}
	if gradable && len(criterionIDs) == 0 {
		add("criterion_ids", "a reviewed target requires at least one evaluation criterion")
	}
	if reviewless && len(criterionIDs) > 0 {
		add("criterion_ids", "must be empty for targets that are not reviewed")
	}

	return errs
}

func containsString(values []string, needle string) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
