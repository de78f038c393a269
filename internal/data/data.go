package data

import (
	"fmt"

	"chat-service/internal/conf"
	"chat-service/internal/data/model"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	goredis "github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"github.com/google/wire"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedis,
	NewRedsync,
	NewData,
	NewUserRepo,
	NewQuotaRepo,
	NewChatMemoryRepo,
	NewModelClient,
)

// Data 数据层结构体
type Data struct {
	db   *gorm.DB
	rdb  *redis.Client
	mq   rocketmq.Producer
	conf *conf.Bootstrap
}

// NewDB 创建数据库连接
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c.Data == nil || c.Data.Database == nil {
		return nil, fmt.Errorf("database config is nil")
	}
	db, err := gorm.Open(mysql.Open(c.Data.Database.Source), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// 自动建表
	if err := db.AutoMigrate(
		&model.SysUser{},
		&model.UserQuotaUsage{},
		&model.ChatMessage{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRedis 创建 Redis 连接
func NewRedis(c *conf.Bootstrap) (*redis.Client, error) {
	if c.Data == nil || c.Data.Redis == nil {
		return nil, fmt.Errorf("redis config is nil")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Data.Redis.Addr,
		Password:     c.Data.Redis.Password,
		DB:           c.Data.Redis.Db,
		ReadTimeout:  c.Data.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Data.Redis.WriteTimeout.AsDuration(),
	})

	// 测试连接
	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// NewRedsync 基于 Redis 连接创建分布式锁客户端
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	return redsync.New(goredis.NewPool(rdb))
}

// newUsageProducer 创建 RocketMQ 生产者
// MQ 未启用或初始化失败时返回 nil，调用方降级为同步落库
func newUsageProducer(c *conf.Bootstrap, logger log.Logger) rocketmq.Producer {
	if c.Data == nil || c.Data.Rocketmq == nil || !c.Data.Rocketmq.Enabled {
		return nil
	}

	p, err := rocketmq.NewProducer(
		producer.WithNsResolver(primitive.NewPassthroughResolver(c.Data.Rocketmq.NameServers)),
		producer.WithGroupName(c.Data.Rocketmq.GroupName),
		producer.WithRetry(int(c.Data.Rocketmq.RetryTimes)),
	)
	if err != nil {
		log.NewHelper(logger).Errorf("init producer error: %v", err)
		return nil
	}
	if err := p.Start(); err != nil {
		log.NewHelper(logger).Errorf("start producer error: %v", err)
		return nil
	}
	return p
}

// NewData 创建数据层实例
func NewData(c *conf.Bootstrap, logger log.Logger, db *gorm.DB, rdb *redis.Client) (*Data, func(), error) {
	mq := newUsageProducer(c, logger)

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
		if err := rdb.Close(); err != nil {
			log.NewHelper(logger).Errorf("failed to close redis: %v", err)
		}
		if mq != nil {
			if err := mq.Shutdown(); err != nil {
				log.NewHelper(logger).Errorf("failed to shutdown producer: %v", err)
			}
		}
	}

	return &Data{
		db:   db,
		rdb:  rdb,
		mq:   mq,
		conf: c,
	}, cleanup, nil
}
