package stores

import (
	"os"

	"github.com/sirupsen/logrus"

	"workspace-collab/core"
	"workspace-collab/stores/aws"
	"workspace-collab/stores/filesystem"
	"workspace-collab/stores/memory"
	"workspace-collab/stores/postgres"
	"workspace-collab/stores/redis"
	"workspace-collab/stores/sqlite"
)

// GetStore selects the snapshot store backend from STORAGE_TYPE.
func GetStore() core.SnapshotStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.SnapshotStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewSnapshotStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "workspace.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewSnapshotStore(dataSourceName)
	case "postgres":
		dsn := os.Getenv("POSTGRES_DSN")
		if dsn == "" {
			logrus.Fatal("POSTGRES_DSN environment variable must be set for postgres storage type")
		}
		store = postgres.NewSnapshotStore(dsn)
	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		storageField["addr"] = addr
		store = redis.NewSnapshotStore(addr)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewSnapshotStore(bucketName)
	default:
		store = memory.NewSnapshotStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
