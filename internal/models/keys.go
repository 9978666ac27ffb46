package models

const (
	// RecommendationLatestKey holds the JSON of the latest published snapshot
	RecommendationLatestKey = "recommendations:latest"
	// RecommendationRankingKey is a ZSET of recommended markets scored by 24h traded value
	RecommendationRankingKey = "recommendations:ranking"
	// RecommendationUpdateChannel is the pub/sub channel notified on every publish
	RecommendationUpdateChannel = "recommendations.updated"
)
