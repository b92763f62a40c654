package learning

import "github.com/google/uuid"

// MembershipState is a learner's relationship to a course.
type MembershipState string

const (
	MembershipUnrelated  MembershipState = "unrelated"
	MembershipWishlisted MembershipState = "wishlisted"
	MembershipEnrolled   MembershipState = "enrolled"
)

type MembershipAction string

const (
	ActionAddToWishlist      MembershipAction = "add_to_wishlist"
	ActionRemoveFromWishlist MembershipAction = "remove_from_wishlist"
	ActionEnroll             MembershipAction = "enroll"
)

// DeriveMembershipState folds the persisted rows into one state. An
// enrollment wins over a stale wishlist entry.
func DeriveMembershipState(enrolled, wishlisted bool) MembershipState {
	switch {
	case enrolled:
		return MembershipEnrolled
	case wishlisted:
		return MembershipWishlisted
	default:
		return MembershipUnrelated
	}
}

// NextMembershipState applies action to state. changed is false for
// redundant actions, which leave the state untouched. Enrolled is terminal.
func NextMembershipState(state MembershipState, action MembershipAction) (next MembershipState, changed bool) {
	switch action {
	case ActionAddToWishlist:
		if state == MembershipUnrelated {
			return MembershipWishlisted, true
		}
	case ActionRemoveFromWishlist:
		if state == MembershipWishlisted {
			return MembershipUnrelated, true
		}
	case ActionEnroll:
		if state == MembershipUnrelated || state == MembershipWishlisted {
			return MembershipEnrolled, true
		}
	}
	return state, false
}

// MembershipChange is the outcome of a membership action.
type MembershipChange struct {
	CourseID   uuid.UUID        `json:"course_id"`
	Action     MembershipAction `json:"action"`
	From       MembershipState  `json:"from"`
	To         MembershipState  `json:"to"`
	Changed    bool             `json:"changed"`
	Enrollment *Enrollment      `json:"enrollment,omitempty"`
}

type EnrolledCourse struct {
	Course     *Course     `json:"course"`
	Enrollment *Enrollment `json:"enrollment"`
}

type WishlistedCourse struct {
	Course *Course        `json:"course"`
	Entry  *WishlistEntry `json:"entry"`
}
