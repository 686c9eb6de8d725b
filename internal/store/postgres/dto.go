// Package postgres implements the row-store capabilities on PostgreSQL via
// GORM, mapping domain records to table rows.
package postgres

import (
	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// UserDTO persists a candidate profile, including the questionnaire columns
// filled in later.
type UserDTO struct {
	UserID        string `gorm:"primaryKey;column:user_id"`
	RegisteredAt  string `gorm:"column:registered_at"`
	Status        string `gorm:"column:status"`
	FullName      string `gorm:"column:full_name"`
	Gender        string `gorm:"column:gender"`
	Birthdate     string `gorm:"column:birthdate"`
	PhoneNumber   string `gorm:"column:phone_number"`
	MBTI          string `gorm:"column:mbti"`
	Role          string `gorm:"column:role"`
	Prefecture    string `gorm:"column:prefecture"`
	DetailArea    string `gorm:"column:detail_area"`
	Satisfaction  string `gorm:"column:satisfaction"`
	Perk          string `gorm:"column:perk"`
	CurrentStatus string `gorm:"column:current_status"`
	Timing        string `gorm:"column:timing"`
	License       string `gorm:"column:license"`
	AgeBand       string `gorm:"column:age_band"`

	QArea              string `gorm:"column:q_area"`
	QJobChanges        string `gorm:"column:q_job_changes"`
	QCurrentEmployment string `gorm:"column:q_current_employment"`
	QExperienceYears   string `gorm:"column:q_experience_years"`
	QDesiredEmployment string `gorm:"column:q_desired_employment"`
	QPriorities        string `gorm:"column:q_priorities"`
	QImprovementPoint  string `gorm:"column:q_improvement_point"`
	QIdealBeautician   string `gorm:"column:q_ideal_beautician"`
}

func (UserDTO) TableName() string {
	return "users"
}

// PostingDTO persists one salon posting from the posting master.
type PostingDTO struct {
	PostingID    string  `gorm:"primaryKey;column:posting_id"`
	Name         string  `gorm:"column:name"`
	Address      string  `gorm:"column:address"`
	ImageURL     string  `gorm:"column:image_url"`
	Latitude     float64 `gorm:"column:latitude"`
	Longitude    float64 `gorm:"column:longitude"`
	Status       string  `gorm:"column:status;index"`
	Roles        string  `gorm:"column:roles"`
	License      string  `gorm:"column:license"`
	TargetGender string  `gorm:"column:target_gender"`
	TargetAge    string  `gorm:"column:target_age"`
	RecruitType  string  `gorm:"column:recruit_type"`
	Perks        string  `gorm:"column:perks"`
	Features     string  `gorm:"column:features"`
}

func (PostingDTO) TableName() string {
	return "salon_postings"
}

// HistoryDTO persists one offered (user, posting) pair with its scheduling
// state.
type HistoryDTO struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"column:user_id;index:idx_history_user_posting"`
	PostingID string `gorm:"column:posting_id;index:idx_history_user_posting"`
	SentDate  string `gorm:"column:sent_date"`
	Status    string `gorm:"column:status"`

	InterviewMethod string `gorm:"column:interview_method"`
	Date1           string `gorm:"column:date1"`
	Start1          string `gorm:"column:start1"`
	End1            string `gorm:"column:end1"`
	Date2           string `gorm:"column:date2"`
	Start2          string `gorm:"column:start2"`
	End2            string `gorm:"column:end2"`
	Date3           string `gorm:"column:date3"`
	Start3          string `gorm:"column:start3"`
	End3            string `gorm:"column:end3"`
}

func (HistoryDTO) TableName() string {
	return "offer_history"
}

// QueueEntryDTO persists one scheduled offer delivery.
type QueueEntryDTO struct {
	ID        string `gorm:"primaryKey;column:id"`
	UserID    string `gorm:"column:user_id"`
	PostingID string `gorm:"column:posting_id"`
	SendAt    string `gorm:"column:send_at;index"`
	Status    string `gorm:"column:status;index"`
}

func (QueueEntryDTO) TableName() string {
	return "offer_queue"
}

func userFromDomain(user *salon.UserWishes) UserDTO {
	return UserDTO{
		UserID:        user.UserID,
		FullName:      user.FullName,
		Gender:        user.Gender,
		Birthdate:     user.Birthdate,
		PhoneNumber:   user.PhoneNumber,
		MBTI:          user.MBTI,
		Role:          user.Role,
		Prefecture:    user.Prefecture,
		DetailArea:    user.DetailArea,
		Satisfaction:  user.Satisfaction,
		Perk:          user.Perk,
		CurrentStatus: user.CurrentStatus,
		Timing:        user.Timing,
		License:       user.License,
		AgeBand:       user.AgeBand,
	}
}

func userToDomain(dto UserDTO) *salon.UserWishes {
	return &salon.UserWishes{
		UserID:        dto.UserID,
		FullName:      dto.FullName,
		Gender:        dto.Gender,
		Birthdate:     dto.Birthdate,
		PhoneNumber:   dto.PhoneNumber,
		MBTI:          dto.MBTI,
		Role:          dto.Role,
		Prefecture:    dto.Prefecture,
		DetailArea:    dto.DetailArea,
		Satisfaction:  dto.Satisfaction,
		Perk:          dto.Perk,
		CurrentStatus: dto.CurrentStatus,
		Timing:        dto.Timing,
		License:       dto.License,
		AgeBand:       dto.AgeBand,
	}
}

func postingFromDomain(p *salon.Posting) PostingDTO {
	return PostingDTO{
		PostingID:    p.ID,
		Name:         p.Name,
		Address:      p.Address,
		ImageURL:     p.ImageURL,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Status:       p.Status,
		Roles:        p.Roles,
		License:      p.License,
		TargetGender: p.TargetGender,
		TargetAge:    p.TargetAge,
		RecruitType:  p.RecruitType,
		Perks:        p.Perks,
		Features:     p.Features,
	}
}

func postingToDomain(dto PostingDTO) *salon.Posting {
	return &salon.Posting{
		ID:           dto.PostingID,
		Name:         dto.Name,
		Address:      dto.Address,
		ImageURL:     dto.ImageURL,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		Status:       dto.Status,
		Roles:        dto.Roles,
		License:      dto.License,
		TargetGender: dto.TargetGender,
		TargetAge:    dto.TargetAge,
		RecruitType:  dto.RecruitType,
		Perks:        dto.Perks,
		Features:     dto.Features,
	}
}

func historyToDomain(dto HistoryDTO) *salon.OfferHistoryEntry {
	return &salon.OfferHistoryEntry{
		UserID:    dto.UserID,
		PostingID: dto.PostingID,
		SentDate:  dto.SentDate,
		Status:    dto.Status,
	}
}

func queueEntryToDomain(dto QueueEntryDTO) *salon.QueueEntry {
	return &salon.QueueEntry{
		ID:        dto.ID,
		UserID:    dto.UserID,
		PostingID: dto.PostingID,
		SendAt:    dto.SendAt,
		Status:    dto.Status,
	}
}
