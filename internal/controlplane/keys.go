package controlplane

// Layout ключей в document store. Стабилен: на него завязана
// совместимость с другими реализациями протокола, менять нельзя.
//
//	cp:wf:{workflow_id}:meta           — meta-документ workflow
//	cp:wf:{workflow_id}:state:{name}   — control-plane документ state
//	dp:wf:{workflow_id}:output:{name}  — data-plane документ с результатом

// MetaKey возвращает ключ meta-документа workflow.
func MetaKey(workflowID string) string {
	return "cp:wf:" + workflowID + ":meta"
}

// StateKey возвращает ключ control-plane документа state.
func StateKey(workflowID, state string) string {
	return "cp:wf:" + workflowID + ":state:" + state
}

// OutputKey возвращает ключ data-plane документа state.
// Отдельный ключ: большие payload не конкурируют с транзакциями
// по lease и статусам.
func OutputKey(workflowID, state string) string {
	return "dp:wf:" + workflowID + ":output:" + state
}
