package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/sabarim/b3quotes/internal/apperr"
)

// Glue accepts at most this many partitions per batch call.
const glueBatchSize = 100

const (
	parquetSerde        = "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"
	parquetInputFormat  = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"
	parquetOutputFormat = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"
)

// refinedColumns is the Hive schema of refined parquet files.
var refinedColumns = []types.Column{
	{Name: aws.String("trade_date"), Type: aws.String("date")},
	{Name: aws.String("opening_price"), Type: aws.String("double")},
	{Name: aws.String("high_price"), Type: aws.String("double")},
	{Name: aws.String("low_price"), Type: aws.String("double")},
	{Name: aws.String("closing_price"), Type: aws.String("double")},
	{Name: aws.String("adjusted_close"), Type: aws.String("double")},
	{Name: aws.String("volume_total"), Type: aws.String("bigint")},
	{Name: aws.String("close_ma_5"), Type: aws.String("double")},
	{Name: aws.String("close_delta"), Type: aws.String("double")},
}

// GlueAPI is the subset of the Glue client used by GlueCatalog.
type GlueAPI interface {
	GetTable(ctx context.Context, in *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
	CreateTable(ctx context.Context, in *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	BatchCreatePartition(ctx context.Context, in *glue.BatchCreatePartitionInput, optFns ...func(*glue.Options)) (*glue.BatchCreatePartitionOutput, error)
	BatchUpdatePartition(ctx context.Context, in *glue.BatchUpdatePartitionInput, optFns ...func(*glue.Options)) (*glue.BatchUpdatePartitionOutput, error)
}

var _ Catalog = (*GlueCatalog)(nil)

// GlueCatalog is a Catalog backed by the AWS Glue Data Catalog.
type GlueCatalog struct {
	client GlueAPI
}

// NewGlueClient builds a Glue client from the default AWS credential chain.
func NewGlueClient(ctx context.Context, region, endpoint string) (*glue.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return glue.NewFromConfig(cfg, func(o *glue.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewGlue wraps a Glue client.
func NewGlue(client GlueAPI) *GlueCatalog {
	return &GlueCatalog{client: client}
}

func (g *GlueCatalog) GetTable(ctx context.Context, database, name string) (Table, error) {
	out, err := g.client.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(name),
	})
	if err != nil {
		var nf *types.EntityNotFoundException
		if errors.As(err, &nf) {
			return Table{}, ErrTableNotFound
		}
		return Table{}, apperr.Remote("glue", "GetTable", err)
	}

	t := Table{Database: database, Name: name}
	if out.Table == nil {
		return t, nil
	}
	if sd := out.Table.StorageDescriptor; sd != nil {
		t.Location = aws.ToString(sd.Location)
	}
	for _, k := range out.Table.PartitionKeys {
		t.PartitionKeys = append(t.PartitionKeys, aws.ToString(k.Name))
	}
	return t, nil
}

func (g *GlueCatalog) EnsureTable(ctx context.Context, table Table) error {
	_, err := g.GetTable(ctx, table.Database, table.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrTableNotFound) {
		return err
	}

	keys := make([]types.Column, 0, len(table.PartitionKeys))
	for _, k := range table.PartitionKeys {
		keys = append(keys, types.Column{Name: aws.String(k), Type: aws.String("string")})
	}
	_, err = g.client.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(table.Database),
		TableInput: &types.TableInput{
			Name:              aws.String(table.Name),
			TableType:         aws.String("EXTERNAL_TABLE"),
			Parameters:        map[string]string{"classification": "parquet"},
			PartitionKeys:     keys,
			StorageDescriptor: storageDescriptor(table.Location),
		},
	})
	if err != nil {
		var exists *types.AlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return apperr.Remote("glue", "CreateTable", err)
	}
	return nil
}

// UpsertPartitions creates partitions in batches and updates the ones Glue
// reports as already existing.
func (g *GlueCatalog) UpsertPartitions(ctx context.Context, database, table string, parts []Partition) (UpsertResult, error) {
	var res UpsertResult
	for start := 0; start < len(parts); start += glueBatchSize {
		chunk := parts[start:min(start+glueBatchSize, len(parts))]

		inputs := make([]types.PartitionInput, 0, len(chunk))
		byValues := make(map[string]Partition, len(chunk))
		for _, p := range chunk {
			inputs = append(inputs, partitionInput(p))
			byValues[valuesKey(p.Values)] = p
		}

		out, err := g.client.BatchCreatePartition(ctx, &glue.BatchCreatePartitionInput{
			DatabaseName:       aws.String(database),
			TableName:          aws.String(table),
			PartitionInputList: inputs,
		})
		if err != nil {
			return res, apperr.Remote("glue", "BatchCreatePartition", err)
		}

		var existing []Partition
		for _, pe := range out.Errors {
			code, msg := "", ""
			if pe.ErrorDetail != nil {
				code = aws.ToString(pe.ErrorDetail.ErrorCode)
				msg = aws.ToString(pe.ErrorDetail.ErrorMessage)
			}
			if code != "AlreadyExistsException" {
				return res, apperr.Remote("glue", "BatchCreatePartition",
					fmt.Errorf("partition %v: %s: %s", pe.PartitionValues, code, msg))
			}
			existing = append(existing, byValues[valuesKey(pe.PartitionValues)])
		}
		res.Created += len(chunk) - len(existing)

		if len(existing) == 0 {
			continue
		}
		entries := make([]types.BatchUpdatePartitionRequestEntry, 0, len(existing))
		for _, p := range existing {
			in := partitionInput(p)
			entries = append(entries, types.BatchUpdatePartitionRequestEntry{
				PartitionValueList: p.Values,
				PartitionInput:     &in,
			})
		}
		upd, err := g.client.BatchUpdatePartition(ctx, &glue.BatchUpdatePartitionInput{
			DatabaseName: aws.String(database),
			TableName:    aws.String(table),
			Entries:      entries,
		})
		if err != nil {
			return res, apperr.Remote("glue", "BatchUpdatePartition", err)
		}
		if len(upd.Errors) > 0 {
			fe := upd.Errors[0]
			msg := ""
			if fe.ErrorDetail != nil {
				msg = aws.ToString(fe.ErrorDetail.ErrorMessage)
			}
			return res, apperr.Remote("glue", "BatchUpdatePartition",
				fmt.Errorf("%d partition(s) failed, first %v: %s", len(upd.Errors), fe.PartitionValueList, msg))
		}
		res.Updated += len(existing)
	}
	return res, nil
}

func (g *GlueCatalog) Close() error { return nil }

func partitionInput(p Partition) types.PartitionInput {
	return types.PartitionInput{
		Values:            p.Values,
		StorageDescriptor: storageDescriptor(p.Location),
	}
}

func storageDescriptor(location string) *types.StorageDescriptor {
	return &types.StorageDescriptor{
		Location:     aws.String(location),
		Columns:      refinedColumns,
		InputFormat:  aws.String(parquetInputFormat),
		OutputFormat: aws.String(parquetOutputFormat),
		SerdeInfo: &types.SerDeInfo{
			SerializationLibrary: aws.String(parquetSerde),
		},
	}
}

func valuesKey(values []string) string {
	return fmt.Sprintf("%q", values)
}
