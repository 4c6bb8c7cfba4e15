package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejaspatil7903/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestIdentifierFilter(t *testing.T) {
	f := identifierFilter("alice", "")
	assert.Equal(t, bson.A{bson.M{"userName": "alice"}}, f["$or"])

	f = identifierFilter("alice", "alice@x.com")
	assert.Equal(t, bson.A{bson.M{"userName": "alice"}, bson.M{"email": "alice@x.com"}}, f["$or"])
}

func TestProfileSet_OnlyChangedFields(t *testing.T) {
	name := "Alice B"
	set := profileSet(models.UserUpdate{FullName: &name})
	assert.Equal(t, bson.M{"fullName": "Alice B"}, set)

	assert.Empty(t, profileSet(models.UserUpdate{}))
}

func stageNames(p []bson.D) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func TestChannelProfilePipeline(t *testing.T) {
	viewer := bson.NewObjectID()
	p := channelProfilePipeline("bob", viewer)

	require.Equal(t, []string{"$match", "$lookup", "$lookup", "$addFields", "$project"}, stageNames(p))
	assert.Equal(t, bson.M{"userName": "bob"}, p[0][0].Value)

	subscribers := p[1][0].Value.(bson.M)
	assert.Equal(t, "channel", subscribers["foreignField"])
	subscribedTo := p[2][0].Value.(bson.M)
	assert.Equal(t, "subscriber", subscribedTo["foreignField"])

	fields := p[3][0].Value.(bson.M)
	cond := fields["isSubscribed"].(bson.M)["$cond"].(bson.M)
	assert.Equal(t, bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}}, cond["if"])

	project := p[4][0].Value.(bson.M)
	assert.NotContains(t, project, "passwordHash")
	assert.NotContains(t, project, "refreshToken")
}

func TestWatchHistoryPipeline(t *testing.T) {
	id := bson.NewObjectID()
	p := watchHistoryPipeline(id)

	require.Equal(t, []string{"$match", "$lookup", "$project"}, stageNames(p))
	assert.Equal(t, bson.M{"_id": id}, p[0][0].Value)

	lookup := p[1][0].Value.(bson.M)
	assert.Equal(t, VideosCollection, lookup["from"])
	assert.Equal(t, "videos", lookup["as"])
	assert.Len(t, lookup["pipeline"], 2)

	// the output is driven by the stored id list, which keeps order and repeats
	history := p[2][0].Value.(bson.M)["watchHistory"].(bson.M)
	mapped := history["$filter"].(bson.M)["input"].(bson.M)["$map"].(bson.M)
	assert.Equal(t, bson.M{"$ifNull": bson.A{"$watchHistory", bson.A{}}}, mapped["input"])
}

func TestPasswordUpdate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	keep := passwordUpdate("h", false, now)
	assert.Equal(t, bson.M{"$set": bson.M{"passwordHash": "h", "updatedAt": now}}, keep)

	revoke := passwordUpdate("h", true, now)
	assert.Equal(t, bson.M{"passwordHash": "h", "updatedAt": now}, revoke["$set"])
	assert.Equal(t, bson.M{"refreshToken": ""}, revoke["$unset"])
}
