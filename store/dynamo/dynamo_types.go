package dynamo

const kvSK = "VALUE"

type dynamoKVItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	Value   string `dynamodbav:"Value"`
	Updated int64  `dynamodbav:"Updated"`
}

func kvPK(key string) string {
	return "KV#" + key
}

const leaseSK = "LEASE"

type dynamoLeaseItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	Owner   string `dynamodbav:"Owner"`
	Expires int64  `dynamodbav:"Expires"`
}

func leasePK(key string) string {
	return "LEASE#" + key
}
