package serializer

// Serializer 序列化接口，F 为原始类型，T 为序列化后的类型
type Serializer[F, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}
