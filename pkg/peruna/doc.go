// Package peruna embeds the SMU campus-involvement assistant in a Go program:
// knowledge-base retrieval and the scripted chat replies of the peruna server,
// without the HTTP layer.
//
// # Local keyword strategy (no network)
//
//	client, _ := peruna.New(ctx)
//	defer client.Close()
//	res := client.Search(ctx, "I want to develop leadership skills", 3)
//	for _, m := range res.Matches {
//	    fmt.Println(m.Document.Title, m.Score)
//	}
//
// # Remote embeddings
//
//	client, _ := peruna.New(ctx,
//	    peruna.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    peruna.WithRedis("localhost:6379", ""),
//	    peruna.WithIndex("peruna-knowledge"),
//	)
//	reply, _ := client.Chat(ctx, "Tell me about Greek life")
package peruna
