package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulumi/pulumi-digitalocean/sdk/v4/go/digitalocean"
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	metav1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/meta/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const prefix = "ticketing"

type settings struct {
	region      string
	nodeSize    string
	nodeCount   int
	environment string
	// dbDriver selects the store backing ticketing-service: postgres or mongo.
	dbDriver    string
	imageBucket string
}

func loadSettings(cfg *config.Config) settings {
	s := settings{
		region:      cfg.Get("region"),
		nodeSize:    cfg.Get("nodeSize"),
		nodeCount:   cfg.GetInt("nodeCount"),
		environment: cfg.Get("environment"),
		dbDriver:    cfg.Get("dbDriver"),
		imageBucket: cfg.Get("imageBucket"),
	}
	if s.region == "" {
		s.region = "blr1"
	}
	if s.nodeSize == "" {
		s.nodeSize = "s-2vcpu-4gb"
	}
	if s.nodeCount == 0 {
		s.nodeCount = 3
	}
	if s.environment == "" {
		s.environment = "production"
	}
	if s.dbDriver == "" {
		s.dbDriver = "postgres"
	}
	if s.imageBucket == "" {
		s.imageBucket = prefix + "-images"
	}
	return s
}

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg := config.New(ctx, "")
		s := loadSettings(cfg)

		vpc, err := digitalocean.NewVpc(ctx, prefix+"-vpc", &digitalocean.VpcArgs{
			Name:    pulumi.String(prefix + "-vpc"),
			Region:  pulumi.String(s.region),
			IpRange: pulumi.String("10.20.0.0/16"),
		})
		if err != nil {
			return err
		}

		cluster, err := digitalocean.NewKubernetesCluster(ctx, prefix+"-cluster", &digitalocean.KubernetesClusterArgs{
			Name:    pulumi.String(prefix + "-cluster"),
			Region:  pulumi.String(s.region),
			Version: pulumi.String("1.31.9-do.2"),
			VpcUuid: vpc.ID(),
			NodePool: &digitalocean.KubernetesClusterNodePoolArgs{
				Name:      pulumi.String("default"),
				Size:      pulumi.String(s.nodeSize),
				NodeCount: pulumi.Int(s.nodeCount),
			},
		})
		if err != nil {
			return err
		}

		newDatabase := func(name, engine, version, size string, nodes int) (*digitalocean.DatabaseCluster, error) {
			return digitalocean.NewDatabaseCluster(ctx, prefix+"-"+name, &digitalocean.DatabaseClusterArgs{
				Name:               pulumi.String(prefix + "-" + name),
				Engine:             pulumi.String(engine),
				Version:            pulumi.String(version),
				Size:               pulumi.String(size),
				Region:             pulumi.String(s.region),
				NodeCount:          pulumi.Int(nodes),
				PrivateNetworkUuid: vpc.ID(),
			})
		}

		// Valkey backs the response cache and the rate limiter.
		valkey, err := newDatabase("valkey", "valkey", "8", "db-s-1vcpu-1gb", 1)
		if err != nil {
			return err
		}
		kafkaCluster, err := newDatabase("kafka", "kafka", "3.8", "db-s-2vcpu-2gb", 3)
		if err != nil {
			return err
		}

		appConfig := pulumi.StringMap{
			"ENVIRONMENT":           pulumi.String(s.environment),
			"DB_DRIVER":             pulumi.String(s.dbDriver),
			"REDIS_HOST":            valkey.Host,
			"REDIS_PORT":            pulumi.Sprintf("%v", valkey.Port),
			"KAFKA_ENABLED":         pulumi.String("true"),
			"KAFKA_BROKERS":         pulumi.Sprintf("%s:%v", kafkaCluster.Host, kafkaCluster.Port),
			"KAFKA_ACTIVITY_TOPIC":  pulumi.String("booking-activity"),
			"UPLOAD_BACKEND":        pulumi.String("minio"),
			"MINIO_ENDPOINT":        pulumi.String(s.region + ".digitaloceanspaces.com"),
			"MINIO_BUCKET":          pulumi.String(s.imageBucket),
			"MINIO_USE_SSL":         pulumi.String("true"),
			"MINIO_PUBLIC_BASE_URL": pulumi.String(fmt.Sprintf("https://%s.%s.digitaloceanspaces.com", s.imageBucket, s.region)),
		}
		appSecrets := pulumi.StringMap{
			"JWT_SECRET":       cfg.RequireSecret("jwtSecret"),
			"REDIS_PASSWORD":   valkey.Password,
			"KAFKA_PASSWORD":   kafkaCluster.Password,
			"MINIO_ACCESS_KEY": cfg.RequireSecret("spacesAccessKey"),
			"MINIO_SECRET_KEY": cfg.RequireSecret("spacesSecretKey"),
		}

		var storeHost pulumi.StringOutput
		switch s.dbDriver {
		case "mongo":
			mongo, err := newDatabase("mongo", "mongodb", "7", "db-s-1vcpu-1gb", 1)
			if err != nil {
				return err
			}
			appConfig["MONGO_DATABASE"] = pulumi.String(prefix)
			appSecrets["MONGO_URI"] = mongo.PrivateUri
			storeHost = mongo.Host
		case "postgres":
			postgres, err := newDatabase("postgres", "pg", "15", "db-s-1vcpu-1gb", 1)
			if err != nil {
				return err
			}
			appConfig["DB_HOST"] = postgres.PrivateHost
			appConfig["DB_PORT"] = pulumi.Sprintf("%v", postgres.Port)
			appConfig["DB_NAME"] = postgres.Database
			appConfig["DB_USER"] = postgres.User
			appConfig["DB_SSL_MODE"] = pulumi.String("require")
			appSecrets["DB_PASSWORD"] = postgres.Password
			storeHost = postgres.Host
		default:
			return fmt.Errorf("unsupported dbDriver %q", s.dbDriver)
		}

		// Event and category images are served from Spaces through the
		// S3-compatible minio client.
		bucket, err := digitalocean.NewSpacesBucket(ctx, prefix+"-images", &digitalocean.SpacesBucketArgs{
			Name:   pulumi.String(s.imageBucket),
			Region: pulumi.String(s.region),
			Acl:    pulumi.String("public-read"),
		})
		if err != nil {
			return err
		}

		k8sProvider, err := kubernetes.NewProvider(ctx, "k8s-provider", &kubernetes.ProviderArgs{
			Kubeconfig: cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig(),
		})
		if err != nil {
			return err
		}

		namespace, err := corev1.NewNamespace(ctx, prefix+"-namespace", &corev1.NamespaceArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name: pulumi.String(prefix),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		_, err = corev1.NewConfigMap(ctx, prefix+"-config", &corev1.ConfigMapArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String(prefix + "-config"),
				Namespace: namespace.Metadata.Name(),
			},
			Data: appConfig,
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		_, err = corev1.NewSecret(ctx, prefix+"-secret", &corev1.SecretArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String(prefix + "-secret"),
				Namespace: namespace.Metadata.Name(),
			},
			StringData: appSecrets,
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		if err := registryAccess(ctx, cfg, namespace, k8sProvider); err != nil {
			return err
		}

		ctx.Export("clusterName", cluster.Name)
		ctx.Export("kubeconfig", pulumi.ToSecret(cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig()))
		ctx.Export("storeDriver", pulumi.String(s.dbDriver))
		ctx.Export("storeHost", storeHost)
		ctx.Export("redisHost", valkey.Host)
		ctx.Export("kafkaHost", kafkaCluster.Host)
		ctx.Export("kafkaPort", kafkaCluster.Port)
		ctx.Export("imageBucket", bucket.BucketDomainName)
		ctx.Export("vpcId", vpc.ID())

		return nil
	})
}

// registryAccess lets the default service account pull images from the
// DigitalOcean registry when an access token is available.
func registryAccess(ctx *pulumi.Context, cfg *config.Config, namespace *corev1.Namespace, provider *kubernetes.Provider) error {
	accessToken := os.Getenv("DIGITALOCEAN_ACCESS_TOKEN")
	if accessToken == "" {
		accessToken = cfg.Get("digitalocean:token")
	}
	if accessToken == "" {
		return nil
	}

	dockerConfig := map[string]interface{}{
		"auths": map[string]interface{}{
			"registry.digitalocean.com": map[string]interface{}{
				"username": "token",
				"password": accessToken,
				"auth":     base64.StdEncoding.EncodeToString([]byte("token:" + accessToken)),
			},
		},
	}
	configJSON, err := json.Marshal(dockerConfig)
	if err != nil {
		return err
	}

	registrySecret, err := corev1.NewSecret(ctx, "registry-secret", &corev1.SecretArgs{
		Metadata: &metav1.ObjectMetaArgs{
			Name:      pulumi.String("regcred"),
			Namespace: namespace.Metadata.Name(),
		},
		Type: pulumi.String("kubernetes.io/dockerconfigjson"),
		Data: pulumi.StringMap{
			".dockerconfigjson": pulumi.String(base64.StdEncoding.EncodeToString(configJSON)),
		},
	}, pulumi.Provider(provider))
	if err != nil {
		return err
	}

	_, err = corev1.NewServiceAccount(ctx, "default-service-account", &corev1.ServiceAccountArgs{
		Metadata: &metav1.ObjectMetaArgs{
			Name:      pulumi.String("default"),
			Namespace: namespace.Metadata.Name(),
		},
		ImagePullSecrets: corev1.LocalObjectReferenceArray{
			&corev1.LocalObjectReferenceArgs{
				Name: registrySecret.Metadata.Name(),
			},
		},
	}, pulumi.Provider(provider), pulumi.DependsOn([]pulumi.Resource{registrySecret}))
	return err
}
