package tasks

import (
	"fmt"

	"text2phenotype.com/standoff/redis"
)

type Client struct {
	Documents DocumentTasks
	Standoff  StandoffTasks
	Jobs      JobTasks
}

// NewClient opens one redis connection per task database.
func NewClient() (Client, error) {
	docRedisClient, err := redis.NewClient(DocumentsDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		_ = docRedisClient.Close()
		return Client{}, err
	}
	standoffRedisClient, err := redis.NewClient(StandoffDB)
	if err != nil {
		_ = docRedisClient.Close()
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Documents: DocumentTasks{client: docRedisClient},
		Jobs:      JobTasks{client: jobsRedisClient},
		Standoff:  StandoffTasks{client: standoffRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Standoff.client.Close()
	_ = client.Documents.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
