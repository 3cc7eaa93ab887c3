/*
Package hlg is a layered, statistically driven natural-language generator.

Text is produced in three refinement passes. The syntax stage expands a
start symbol through stacked n-gram layers into a skeleton of slot
categories. The semantic stage fills every slot with a word, scoring n-gram
probability against similarity to the conversation's context vector. The
cohesion stage rewrites surfaces within syntactic spans (capitalisation,
function words, deletions) and renders the final string.

Generation is deterministic: identical models, history and options always
produce identical text.

# Usage

	inst, err := hlg.Init(ctx, domain.Options{
		SyntacticModelPath: "models/syntax.yaml",
		SemanticModelPath:  "models/semantic.yaml",
		CohesionModelPath:  "models/cohesion.yaml",
		EmbeddingsPath:     "models/glove.bin",
		EmbeddingCacheSizeMB: 64,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer inst.Cleanup()

	conv, _ := inst.NewConversation(0)
	_ = conv.AddPrompt(ctx, "Tell me about cats")

	buf := make([]byte, 256)
	n, err := inst.Generate(ctx, conv, buf)
	fmt.Println(string(buf[:n]))

Models can also be built in code with package dsl and injected with
WithLoader. Conversations persist through the stores in pkg/adapters and
are serialized per ID by pkg/session.
*/
package hlg
