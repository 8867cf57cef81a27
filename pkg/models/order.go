package models

type SearchOrder string

const (
	OrderRanking      SearchOrder = "RANKING"
	OrderTrackAsc     SearchOrder = "TRACK_ASC"
	OrderTrackDesc    SearchOrder = "TRACK_DESC"
	OrderArtistAsc    SearchOrder = "ARTIST_ASC"
	OrderArtistDesc   SearchOrder = "ARTIST_DESC"
	OrderAlbumAsc     SearchOrder = "ALBUM_ASC"
	OrderAlbumDesc    SearchOrder = "ALBUM_DESC"
	OrderRatingAsc    SearchOrder = "RATING_ASC"
	OrderRatingDesc   SearchOrder = "RATING_DESC"
	OrderDurationAsc  SearchOrder = "DURATION_ASC"
	OrderDurationDesc SearchOrder = "DURATION_DESC"
)

var SearchOrders = []SearchOrder{
	OrderRanking,
	OrderTrackAsc,
	OrderTrackDesc,
	OrderArtistAsc,
	OrderArtistDesc,
	OrderAlbumAsc,
	OrderAlbumDesc,
	OrderRatingAsc,
	OrderRatingDesc,
	OrderDurationAsc,
	OrderDurationDesc,
}

func (o SearchOrder) Valid() bool {
	for _, order := range SearchOrders {
		if o == order {
			return true
		}
	}
	return false
}
