package places

import "github.com/placescout/placescout-backend/internal/domain"

// fieldMask limits the provider response to the fields the result store
// persists. Requesting anything wider is billed differently upstream.
const fieldMask = "places.displayName,places.formattedAddress,places.nationalPhoneNumber,places.id,nextPageToken"

// searchRequest is the body of a places:searchText call.
type searchRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode"`
	PageSize     int    `json:"pageSize"`
	PageToken    string `json:"pageToken,omitempty"`
}

// searchResponse is the provider's page envelope.
type searchResponse struct {
	Places        []apiPlace `json:"places"`
	NextPageToken string     `json:"nextPageToken"`
}

// apiPlace is a single place record. Every descriptive field is optional.
type apiPlace struct {
	ID                  string          `json:"id"`
	DisplayName         *apiDisplayName `json:"displayName"`
	NationalPhoneNumber string          `json:"nationalPhoneNumber"`
	FormattedAddress    string          `json:"formattedAddress"`
}

type apiDisplayName struct {
	Text string `json:"text"`
}

// toDomain converts an API place into a domain.PlaceResult, dropping empty
// fields to nil.
func (p apiPlace) toDomain() domain.PlaceResult {
	var out domain.PlaceResult
	if p.ID != "" {
		id := p.ID
		out.PlaceID = &id
	}
	if p.DisplayName != nil && p.DisplayName.Text != "" {
		name := p.DisplayName.Text
		out.Name = &name
	}
	if p.NationalPhoneNumber != "" {
		phone := p.NationalPhoneNumber
		out.Phone = &phone
	}
	if p.FormattedAddress != "" {
		addr := p.FormattedAddress
		out.Address = &addr
	}
	return out
}
