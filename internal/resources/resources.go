// Package resources lists the AWS resource types the pipeline is deployed
// with, grouped by service.
package resources

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Service is one AWS service and the resource types it contributes.
type Service struct {
	Name      string   `yaml:"service"`
	Resources []string `yaml:"resources"`
}

// AWSServices is the deployment inventory, in display order.
var AWSServices = []Service{
	{Name: "compute", Resources: []string{
		"aws_instance",
		"aws_autoscaling_group",
		"aws_launch_template",
		"aws_key_pair",
		"aws_security_group",
		"aws_ebs_volume",
	}},
	{Name: "glue", Resources: []string{
		"aws_glue_job",
		"aws_glue_catalog_database",
		"aws_glue_catalog_table",
	}},
	{Name: "s3", Resources: []string{
		"aws_s3_bucket",
		"aws_s3_object",
		"aws_s3_bucket_notification",
		"aws_s3_bucket_public_access_block",
		"aws_s3_bucket_server_side_encryption_configuration",
		"aws_s3_bucket_versioning",
	}},
	{Name: "lambda", Resources: []string{
		"aws_lambda_function",
		"aws_lambda_permission",
	}},
	{Name: "iam", Resources: []string{
		"aws_iam_role",
		"aws_iam_policy",
		"aws_iam_instance_profile",
		"aws_iam_role_policy_attachment",
	}},
}

// Write prints services in the given format: "text" (default) or "yaml".
func Write(w io.Writer, services []Service, format string) error {
	switch format {
	case "", "text":
		for _, s := range services {
			if _, err := fmt.Fprintf(w, "service: %s\n", s.Name); err != nil {
				return err
			}
			for _, r := range s.Resources {
				if _, err := fmt.Fprintf(w, "  - %s\n", r); err != nil {
					return err
				}
			}
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(services); err != nil {
			return fmt.Errorf("failed to encode resources: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
