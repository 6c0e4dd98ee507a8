package atlas

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// Atlas rejects numCandidates above this value.
	maxNumCandidates = 10000
	// candidateFactor widens the ANN candidate set relative to the limit.
	candidateFactor = 10

	labelBoost = 3.0
)

// vectorSearchPipeline builds the $vectorSearch aggregation returning
// {_id, score} documents ordered by similarity.
func vectorSearchPipeline(index string, vector []float32, limit int) mongo.Pipeline {
	numCandidates := min(limit*candidateFactor, maxNumCandidates)
	numCandidates = max(numCandidates, limit)

	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: fieldEmbedding},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

// textSearchPipeline builds the Atlas Search aggregation returning
// {_id, score} documents ordered by relevance. Matches on the condition name
// are boosted over title and snippet matches.
func textSearchPipeline(index, query string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "compound", Value: bson.D{
				{Key: "should", Value: bson.A{
					bson.D{{Key: "text", Value: bson.D{
						{Key: "query", Value: query},
						{Key: "path", Value: fieldLabel},
						{Key: "score", Value: bson.D{{Key: "boost", Value: bson.D{{Key: "value", Value: labelBoost}}}}},
					}}},
					bson.D{{Key: "text", Value: bson.D{
						{Key: "query", Value: query},
						{Key: "path", Value: bson.A{fieldTitle, fieldSnippet}},
					}}},
				}},
				{Key: "minimumShouldMatch", Value: 1},
			}},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "searchScore"}}},
		}}},
	}
}
