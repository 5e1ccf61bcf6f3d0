package models

import "time"

// Service is a single stored credential (username/password/URL) under an
// item. The password field holds the credential as given by the user; it is
// unrelated to the account master password and carries no hashing contract.
type Service struct {
	ID        string
	Name      string
	UserName  string
	Password  string
	URL       string
	ItemID    string
	CreatedAt time.Time
}

// PublicService is the list view of a Service. It omits the stored password;
// credentials are only revealed on the authorized item detail read.
type PublicService struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"username"`
	URL       string    `json:"url"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) Public() PublicService {
	return PublicService{
		ID:        s.ID,
		Name:      s.Name,
		UserName:  s.UserName,
		URL:       s.URL,
		ItemID:    s.ItemID,
		CreatedAt: s.CreatedAt,
	}
}

// Detail is the full view of a Service, password included. Only returned to
// callers that passed the item-level access check.
type ServiceDetail struct {
	PublicService
	Password string `json:"password"`
}

func (s *Service) Detail() ServiceDetail {
	return ServiceDetail{PublicService: s.Public(), Password: s.Password}
}
