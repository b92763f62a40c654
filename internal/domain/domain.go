package domain

import (
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
)

const (
	DifficultyBeginner = learning.DifficultyBeginner
	DifficultyAverage  = learning.DifficultyAverage
	DifficultyAdvanced = learning.DifficultyAdvanced

	MembershipUnrelated  = learning.MembershipUnrelated
	MembershipWishlisted = learning.MembershipWishlisted
	MembershipEnrolled   = learning.MembershipEnrolled

	ProgressRecompute = learning.ProgressRecompute
	ProgressMonotonic = learning.ProgressMonotonic
)

type Difficulty = learning.Difficulty

type Course = learning.Course
type Module = learning.Module
type Video = learning.Video
type ModuleTree = learning.ModuleTree

type Enrollment = learning.Enrollment
type ProgressRecord = learning.ProgressRecord
type WishlistEntry = learning.WishlistEntry

type IDSet = learning.IDSet
type CompletionState = learning.CompletionState
type CourseProgress = learning.CourseProgress
type ProgressPolicy = learning.ProgressPolicy

type MembershipState = learning.MembershipState
type MembershipAction = learning.MembershipAction
type MembershipChange = learning.MembershipChange

type NodeRef = learning.NodeRef
type CourseFields = learning.CourseFields
type CourseDraft = learning.CourseDraft
type ModuleDraft = learning.ModuleDraft
type VideoDraft = learning.VideoDraft
type Baseline = learning.Baseline
type SaveReport = learning.SaveReport
type ItemOutcome = learning.ItemOutcome
type SaveStatus = learning.SaveStatus

type CourseDetail = learning.CourseDetail
type EnrolledCourse = learning.EnrolledCourse
type WishlistedCourse = learning.WishlistedCourse
type ToggleResult = learning.ToggleResult
