package dto

// CampsiteAvailabilityResponse answers whether a campsite is free for a stay.
type CampsiteAvailabilityResponse struct {
	CampsiteID int64  `json:"campsite_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Available  bool   `json:"available"`
}

// AssetAvailabilityResponse names the item checkout would allocate, if any.
type AssetAvailabilityResponse struct {
	AssetTypeID int64  `json:"asset_type_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Available   bool   `json:"available"`
	ItemID      *int64 `json:"item_id,omitempty"`
}
